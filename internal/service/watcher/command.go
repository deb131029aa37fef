package watcher

import (
	"context"
	"fmt"

	"github.com/minaret-app/minaret/internal/config"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/fetcher"
	"github.com/minaret-app/minaret/internal/logger"
	"github.com/minaret-app/minaret/internal/repository/cache"
)

// Options controls a single watcher invocation from the CLI.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// CacheFile overrides the places cache path from the settings.
	CacheFile string
	// Latitude and Longitude form the location sample to process.
	Latitude  float64
	Longitude float64
}

// Run processes one location sample end to end and logs what the front-end
// would display: cache status, the nearest place and the next observance.
// The CLI acts as the location provider here; any other front-end drives the
// Service directly.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "watcher")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Use CacheFile from config unless overridden by command line option.
	cacheFile := cfg.CacheFile
	if opts.CacheFile != "" {
		cacheFile = opts.CacheFile
	}

	repo := cache.NewFileRepository(cacheFile)

	schedules := fetcher.NewRateLimitedScheduleFetcher(
		fetcher.NewAladhanClient(cfg.PrayerAPIBaseURL, cfg.CalculationMethod, nil, cfg.HTTPTimeout),
		cfg.FetchRPS, cfg.FetchBurst,
	)

	places := fetcher.NewRateLimitedPlaceFetcher(
		fetcher.NewOverpassClient(cfg.OverpassURL, cfg.HTTPTimeout),
		cfg.FetchRPS, cfg.FetchBurst,
	)

	service, err := NewService(ctx, cfg, repo, schedules, places, LogSink{})
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	sample := geo.Coordinate{Latitude: opts.Latitude, Longitude: opts.Longitude}

	status, err := service.HandleLocation(ctx, sample)
	if err != nil && status == nil {
		return err
	}

	if err != nil {
		// Persist failure: alarms are scheduled, the durable cache is behind.
		logger.Warnf(ctx, "Cache not persisted: %v", err)
	}

	logger.InfoKV(ctx, "Location sample handled",
		"position", sample.String(),
		"cache_refreshed", status.Refreshed,
		"places", status.PlaceCount,
	)

	if status.NearestName != "" {
		logger.InfoKV(ctx, "Nearest place of worship",
			"name", status.NearestName,
			"distance_m", fmt.Sprintf("%.0f", status.NearestMeters),
		)
	}

	if status.NextLabel != "" {
		logger.InfoKV(ctx, "Next prayer",
			"label", status.NextLabel,
			"at", status.NextAt,
		)
	}

	return nil
}
