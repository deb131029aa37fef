package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minaret-app/minaret/internal/config"
	"github.com/minaret-app/minaret/internal/logger"
	"github.com/minaret-app/minaret/internal/service/watcher"
	"github.com/minaret-app/minaret/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// cacheFile path where the places snapshot is persisted.
	cacheFile string
	// logLevel is the minimum level for console output.
	logLevel string

	// rootCmd represents the base command processing one location sample.
	rootCmd = &cobra.Command{
		Use:   "minaret <latitude> <longitude>",
		Short: "Check nearby places of worship and schedule prayer reminders.",
		Long: `Processes one location sample: decides whether the cached places of worship
are still valid for the given position, refetches them from Overpass when the
device has moved too far or the day has changed, fetches the day's prayer
times, and registers a reminder ahead of each prayer.

The places snapshot is cached in a JSON file so repeated runs near the same
position on the same day need no network access for places. Coordinates are
decimal degrees, e.g.: minaret 24.7136 46.6753`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			latitude, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q: %w", args[0], err)
			}

			longitude, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q: %w", args[1], err)
			}

			options := &watcher.Options{
				ConfigPath: configPath,
				CacheFile:  cacheFile,
				Latitude:   latitude,
				Longitude:  longitude,
			}

			return watcher.Run(ctx, options)
		},
	}
)

// Execute runs the minaret CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&cacheFile, "cache-file", "f", "", "path to the places cache (overrides configuration)")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
}
