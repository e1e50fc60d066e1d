// Package config provides configuration management for Mercator Saturn.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("saturn.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("saturn.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SATURN_SECTION_FIELD.
// For example:
//
//   - SATURN_REPORTING_API_KEY overrides reporting.api_key
//   - SATURN_REPORTING_GRAPH_REF overrides reporting.graph_ref
//   - SATURN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// A missing graph ref or API key fails validation: the agent refuses to
// start half-configured rather than silently dropping traces.
//
// # Hot Reload
//
// Watcher reloads the file on change and hands the new configuration to a
// callback, which the agent uses to adjust flush thresholds at runtime:
//
//	w, err := config.NewWatcher("saturn.yaml", agent.ApplyConfig)
//	if err == nil {
//	    _ = w.Start()
//	    defer w.Stop()
//	}
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	reporting:
//	  graph_ref: "my-graph@production"
//	  api_key: "${SATURN_API_KEY}"
//
//	journal:
//	  enabled: true
//	  backend: "sqlite"
//	  sqlite_path: "data/journal.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
