package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns the smallest configuration that passes
// validation: defaults plus the required graph identity.
func minimalValidConfig() *Config {
	cfg := DefaultConfig()
	cfg.Reporting.GraphRef = "my-graph@current"
	cfg.Reporting.APIKey = "service:my-graph:secret"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(minimalValidConfig()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail for an empty config")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Reporting(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "missing graph ref",
			mutate:     func(c *Config) { c.Reporting.GraphRef = "" },
			errorField: "reporting.graph_ref",
		},
		{
			name:       "missing api key",
			mutate:     func(c *Config) { c.Reporting.APIKey = "" },
			errorField: "reporting.api_key",
		},
		{
			name:       "missing endpoint url",
			mutate:     func(c *Config) { c.Reporting.EndpointURL = "" },
			errorField: "reporting.endpoint_url",
		},
		{
			name:       "relative endpoint url",
			mutate:     func(c *Config) { c.Reporting.EndpointURL = "not-a-url" },
			errorField: "reporting.endpoint_url",
		},
		{
			name:       "zero report interval",
			mutate:     func(c *Config) { c.Reporting.ReportInterval = 0 },
			errorField: "reporting.report_interval",
		},
		{
			name:       "negative max report size",
			mutate:     func(c *Config) { c.Reporting.MaxUncompressedReportSize = -1 },
			errorField: "reporting.max_uncompressed_report_size",
		},
		{
			name:       "negative ship buffer",
			mutate:     func(c *Config) { c.Reporting.ShipBuffer = -1 },
			errorField: "reporting.ship_buffer",
		},
		{
			name:       "zero send timeout",
			mutate:     func(c *Config) { c.Reporting.SendTimeout = 0 },
			errorField: "reporting.send_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalValidConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			if !strings.Contains(err.Error(), tt.errorField) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.errorField)
			}
		})
	}
}

func TestValidate_Journal(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "unknown backend",
			mutate:     func(c *Config) { c.Journal.Backend = "postgres" },
			errorField: "journal.backend",
		},
		{
			name:       "sqlite backend without path",
			mutate:     func(c *Config) { c.Journal.SQLitePath = "" },
			errorField: "journal.sqlite_path",
		},
		{
			name:       "negative retention days",
			mutate:     func(c *Config) { c.Journal.Retention.Days = -1 },
			errorField: "journal.retention.days",
		},
		{
			name:       "invalid prune schedule",
			mutate:     func(c *Config) { c.Journal.Retention.PruneSchedule = "every day at noon" },
			errorField: "journal.retention.prune_schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalValidConfig()
			cfg.Journal.Enabled = true
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			if !strings.Contains(err.Error(), tt.errorField) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.errorField)
			}
		})
	}
}

func TestValidate_DisabledJournalSkipsChecks(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.Journal.Enabled = false
	cfg.Journal.Backend = "postgres"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled journal should not be validated: %v", err)
	}
}

func TestValidate_Telemetry(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.Telemetry.Logging.Level = "verbose"
	cfg.Telemetry.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	for _, field := range []string{"telemetry.logging.level", "telemetry.logging.format"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention field %q", err.Error(), field)
		}
	}
}
