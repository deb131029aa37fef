package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds tunables shared by the minaret binaries and the watcher
// service. Distances are meters; durations round-trip through YAML as
// integer nanoseconds, the yaml.v3 encoding of time.Duration.
type Config struct {
	// PrayerAPIBaseURL is the base URL of the aladhan-compatible timings API.
	PrayerAPIBaseURL string `yaml:"prayer_api_url"`
	// OverpassURL is the Overpass API interpreter endpoint used to look up
	// places of worship.
	OverpassURL string `yaml:"overpass_url"`
	// CacheFile is the path to the JSON file storing the fetched places.
	CacheFile string `yaml:"cache_file"`
	// CacheRadiusMeters is the lookup radius for candidate places around the
	// current position. It is deliberately wider than UpdateDistanceMeters:
	// a place fetched near the edge of the radius can fall out of coverage
	// before the device travels far enough to trigger a refetch. Accepted
	// approximation inherited from the cache design.
	CacheRadiusMeters float64 `yaml:"cache_radius_meters"`
	// UpdateDistanceMeters is how far the device must move from the cached
	// fetch position before the cache is considered stale.
	UpdateDistanceMeters float64 `yaml:"update_distance_meters"`
	// AlarmLead is subtracted from each event time to produce the reminder
	// trigger instant.
	AlarmLead time.Duration `yaml:"alarm_lead"`
	// SilenceDuration is how long after each event the device should stay
	// silenced; carried on every alarm entry.
	SilenceDuration time.Duration `yaml:"silence_duration"`
	// HTTPTimeout bounds every outbound fetch request.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// FetchRPS caps requests per second against each public API.
	FetchRPS float64 `yaml:"fetch_rps"`
	// FetchBurst is the token-bucket burst size for fetch rate limiting.
	FetchBurst int `yaml:"fetch_burst"`
	// CalculationMethod selects the timings calculation convention of the
	// prayer API (2 = ISNA).
	CalculationMethod int `yaml:"calculation_method"`
}

const (
	// DefaultConfigFilename is the default filename for watcher settings.
	DefaultConfigFilename = "minaret-settings.yaml"

	// DefaultCacheFilename is the default filename for the places cache JSON.
	DefaultCacheFilename = "minaret-places.json"

	// DefaultCacheRadiusMeters is the default place lookup radius (30 km).
	DefaultCacheRadiusMeters = 30_000.0

	// DefaultUpdateDistanceMeters is the default movement threshold (20 km).
	DefaultUpdateDistanceMeters = 20_000.0

	// DefaultAlarmLead is the default reminder lead before each event.
	DefaultAlarmLead = 5 * time.Minute

	// DefaultSilenceDuration is the default silence window after each event.
	DefaultSilenceDuration = 30 * time.Minute

	// DefaultHTTPTimeout is the default bound on outbound fetch requests.
	DefaultHTTPTimeout = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// defaultPrayerAPIBaseURL is the public aladhan API.
	defaultPrayerAPIBaseURL = "https://api.aladhan.com"

	// defaultOverpassURL is the public Overpass interpreter.
	defaultOverpassURL = "https://overpass-api.de/api/interpreter"

	// defaultFetchRPS keeps a polite pace against the shared public APIs.
	defaultFetchRPS = 1.0

	// defaultFetchBurst allows the initial place+timings pair through at once.
	defaultFetchBurst = 2

	// defaultCalculationMethod is ISNA, matching the original deployment.
	defaultCalculationMethod = 2
)

// Environment variable names that override file-based settings.
// A .env file in the working directory is honoured via godotenv.
const (
	envPrayerAPIBaseURL = "MINARET_PRAYER_API_URL"
	envOverpassURL      = "MINARET_OVERPASS_URL"
	envCacheFile        = "MINARET_CACHE_FILE"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNonPositiveRadius is returned when a lookup radius is zero or negative.
	errNonPositiveRadius = errors.New("cache radius must be positive")
	// errNonPositiveDistance is returned when the movement threshold is zero or negative.
	errNonPositiveDistance = errors.New("update distance must be positive")
	// errNegativeLead is returned when the alarm lead is negative.
	errNegativeLead = errors.New("alarm lead must not be negative")
	// errNegativeSilence is returned when the silence duration is negative.
	errNegativeSilence = errors.New("silence duration must not be negative")
)

// Default returns a configuration populated with the stock radii, lead and
// silence values. Callers mutate the copy as needed.
func Default() *Config {
	return &Config{
		PrayerAPIBaseURL:     defaultPrayerAPIBaseURL,
		OverpassURL:          defaultOverpassURL,
		CacheFile:            DefaultCacheFilename,
		CacheRadiusMeters:    DefaultCacheRadiusMeters,
		UpdateDistanceMeters: DefaultUpdateDistanceMeters,
		AlarmLead:            DefaultAlarmLead,
		SilenceDuration:      DefaultSilenceDuration,
		HTTPTimeout:          DefaultHTTPTimeout,
		FetchRPS:             defaultFetchRPS,
		FetchBurst:           defaultFetchBurst,
		CalculationMethod:    defaultCalculationMethod,
	}
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing settings file is not an
// error: the binary runs on defaults so first use needs no setup.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults stand.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	applyEnvironment(cfg)

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided configuration for required fields and
// formatting, filling defaults for fields left empty.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PrayerAPIBaseURL == "" {
		cfg.PrayerAPIBaseURL = defaultPrayerAPIBaseURL
	}

	if cfg.OverpassURL == "" {
		cfg.OverpassURL = defaultOverpassURL
	}

	for _, endpoint := range []string{cfg.PrayerAPIBaseURL, cfg.OverpassURL} {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return fmt.Errorf("invalid endpoint URL %q: %w", endpoint, err)
		}
	}

	if cfg.CacheFile == "" {
		cfg.CacheFile = DefaultCacheFilename
	}

	if cfg.CacheRadiusMeters <= 0 {
		return errNonPositiveRadius
	}

	if cfg.UpdateDistanceMeters <= 0 {
		return errNonPositiveDistance
	}

	if cfg.AlarmLead < 0 {
		return errNegativeLead
	}

	if cfg.SilenceDuration < 0 {
		return errNegativeSilence
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}

	if cfg.FetchRPS <= 0 {
		cfg.FetchRPS = defaultFetchRPS
	}

	if cfg.FetchBurst <= 0 {
		cfg.FetchBurst = defaultFetchBurst
	}

	if cfg.CalculationMethod <= 0 {
		cfg.CalculationMethod = defaultCalculationMethod
	}

	return nil
}

// applyEnvironment overlays environment variables onto the configuration.
// A .env file in the working directory is loaded first, if present.
func applyEnvironment(cfg *Config) {
	// Ignore the error: a missing .env file simply means plain environment.
	_ = godotenv.Load()

	if v := os.Getenv(envPrayerAPIBaseURL); v != "" {
		cfg.PrayerAPIBaseURL = v
	}

	if v := os.Getenv(envOverpassURL); v != "" {
		cfg.OverpassURL = v
	}

	if v := os.Getenv(envCacheFile); v != "" {
		cfg.CacheFile = v
	}
}
