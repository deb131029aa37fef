package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks range validations and default filling.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	err := Validate(nil)
	require.Error(t, err)

	// Zero radius.
	cfg := Default()
	cfg.CacheRadiusMeters = 0

	err = Validate(cfg)
	require.ErrorIs(t, err, errNonPositiveRadius)

	// Negative movement threshold.
	cfg = Default()
	cfg.UpdateDistanceMeters = -1

	err = Validate(cfg)
	require.ErrorIs(t, err, errNonPositiveDistance)

	// Negative lead.
	cfg = Default()
	cfg.AlarmLead = -time.Minute

	err = Validate(cfg)
	require.ErrorIs(t, err, errNegativeLead)

	// Bad endpoint URL.
	cfg = Default()
	cfg.OverpassURL = "not a url"

	err = Validate(cfg)
	require.Error(t, err)

	// Empty fields fall back to defaults.
	cfg = Default()
	cfg.CacheFile = ""
	cfg.HTTPTimeout = 0

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultCacheFilename, cfg.CacheFile)
	require.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
}

// TestLoad_MissingFile ensures a missing settings file yields the defaults.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.InDelta(t, DefaultCacheRadiusMeters, cfg.CacheRadiusMeters, 0)
	require.InDelta(t, DefaultUpdateDistanceMeters, cfg.UpdateDistanceMeters, 0)
	require.Equal(t, DefaultAlarmLead, cfg.AlarmLead)
	require.Equal(t, DefaultSilenceDuration, cfg.SilenceDuration)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := Default()
	cfg.CacheFile = filepath.Join(dir, "places.json")
	cfg.UpdateDistanceMeters = 15_000
	cfg.AlarmLead = 10 * time.Minute

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.CacheFile, loaded.CacheFile)
	require.InDelta(t, cfg.UpdateDistanceMeters, loaded.UpdateDistanceMeters, 0)
	require.Equal(t, cfg.AlarmLead, loaded.AlarmLead)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_EnvironmentOverrides ensures environment variables win over file values.
func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(envOverpassURL, "https://overpass.example.org/api/interpreter")
	t.Setenv(envCacheFile, "/var/cache/minaret/places.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "https://overpass.example.org/api/interpreter", cfg.OverpassURL)
	require.Equal(t, "/var/cache/minaret/places.json", cfg.CacheFile)
}
