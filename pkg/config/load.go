package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Use LoadConfigWithEnvOverrides to also honor environment
// variables.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention SATURN_SECTION_FIELD (e.g., SATURN_REPORTING_API_KEY)
// and always take precedence over file-based configuration. Validation
// runs after the overrides, so credentials may come from the environment
// alone.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parseFile reads and parses the YAML file and applies defaults, without
// validating.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Defaulting true booleans happens before parsing so an absent key
	// keeps the default while an explicit "false" still wins.
	var cfg Config
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format SATURN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Reporting overrides
	if val := os.Getenv("SATURN_REPORTING_ENDPOINT_URL"); val != "" {
		cfg.Reporting.EndpointURL = val
	}
	if val := os.Getenv("SATURN_REPORTING_GRAPH_REF"); val != "" {
		cfg.Reporting.GraphRef = val
	}
	if val := os.Getenv("SATURN_REPORTING_API_KEY"); val != "" {
		cfg.Reporting.APIKey = val
	}
	if val := os.Getenv("SATURN_REPORTING_SEND_REPORTS_IMMEDIATELY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Reporting.SendReportsImmediately = b
		}
	}
	if val := os.Getenv("SATURN_REPORTING_REPORT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Reporting.ReportInterval = d
		}
	}
	if val := os.Getenv("SATURN_REPORTING_MAX_UNCOMPRESSED_REPORT_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Reporting.MaxUncompressedReportSize = i
		}
	}
	if val := os.Getenv("SATURN_REPORTING_SEND_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Reporting.SendTimeout = d
		}
	}

	// Journal overrides
	if val := os.Getenv("SATURN_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("SATURN_JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv("SATURN_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLitePath = val
	}
	if val := os.Getenv("SATURN_JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("SATURN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SATURN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SATURN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
