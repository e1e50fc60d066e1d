package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "saturn",
	Short: "Mercator Saturn - GraphQL trace reporting agent",
	Long: `Mercator Saturn instruments GraphQL servers to produce per-request
trace trees of resolver timings and errors, batches the traces into
reports, and ships them to a remote ingestion endpoint.

The agent is embedded in the host server as a library; this binary
provides the surrounding tooling: configuration validation, local
trace journal inspection, and journal retention maintenance.

For more information, visit: https://github.com/mercator-hq/saturn`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "saturn.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configured file with environment overrides and
// installs the logger it describes.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	setupLogging(&cfg.Telemetry.Logging)
	return cfg, nil
}

// setupLogging installs a slog default logger per the telemetry
// configuration. The --verbose flag forces debug level.
func setupLogging(cfg *config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
