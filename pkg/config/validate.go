package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "reporting.api_key").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together. A missing graph ref or API key is an error here:
// the agent must not silently run half-configured.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateReporting(&cfg.Reporting)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateReporting validates the reporting configuration.
func validateReporting(cfg *ReportingConfig) []FieldError {
	var errs []FieldError

	if cfg.GraphRef == "" {
		errs = append(errs, FieldError{
			Field:   "reporting.graph_ref",
			Message: "graph ref is required",
		})
	}
	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "reporting.api_key",
			Message: "api key is required",
		})
	}

	if cfg.EndpointURL == "" {
		errs = append(errs, FieldError{
			Field:   "reporting.endpoint_url",
			Message: "endpoint url is required",
		})
	} else if u, err := url.Parse(cfg.EndpointURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "reporting.endpoint_url",
			Message: fmt.Sprintf("invalid endpoint url %q", cfg.EndpointURL),
		})
	}

	if cfg.ReportInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "reporting.report_interval",
			Message: "report interval must be positive",
		})
	}
	if cfg.MaxUncompressedReportSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "reporting.max_uncompressed_report_size",
			Message: "max uncompressed report size must be positive",
		})
	}
	if cfg.ShipBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "reporting.ship_buffer",
			Message: "ship buffer must be non-negative",
		})
	}
	if cfg.SendTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "reporting.send_timeout",
			Message: "send timeout must be positive",
		})
	}

	return errs
}

// validateJournal validates the journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite_path",
			Message: "sqlite path is required for the sqlite backend",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	return errs
}

// validateTelemetry validates the telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format),
		})
	}

	return errs
}
