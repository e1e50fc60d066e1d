package config

import "time"

// Default values for configuration fields.
const (
	// Reporting defaults
	DefaultEndpointURL               = "https://ingest.saturn.mercator.dev/api/traces"
	DefaultSendReportsImmediately    = false
	DefaultReportInterval            = 10 * time.Second
	DefaultMaxUncompressedReportSize = 4 * 1024 * 1024 // 4 MiB
	DefaultShipBuffer                = 16
	DefaultSendTimeout               = 10 * time.Second

	// Journal defaults
	DefaultJournalEnabled       = false
	DefaultJournalBackend       = "sqlite"
	DefaultJournalSQLitePath    = "data/journal.db"
	DefaultJournalRetentionDays = 7
	DefaultJournalPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "mercator"
	DefaultMetricsSubsystem = "saturn"
)

// DefaultReportSizeBuckets are the histogram buckets for report sizes,
// spanning 1KB to 4MB.
var DefaultReportSizeBuckets = []float64{
	1024, 4096, 16384, 65536, 262144, 1048576, 2097152, 4194304,
}

// DefaultConfig returns a configuration populated with all default values.
// GraphRef and APIKey have no defaults and must be supplied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued fields in the
// configuration. Explicitly configured values are never overwritten.
func ApplyDefaults(cfg *Config) {
	// Reporting defaults
	if cfg.Reporting.EndpointURL == "" {
		cfg.Reporting.EndpointURL = DefaultEndpointURL
	}
	if cfg.Reporting.ReportInterval == 0 {
		cfg.Reporting.ReportInterval = DefaultReportInterval
	}
	if cfg.Reporting.MaxUncompressedReportSize == 0 {
		cfg.Reporting.MaxUncompressedReportSize = DefaultMaxUncompressedReportSize
	}
	if cfg.Reporting.ShipBuffer == 0 {
		cfg.Reporting.ShipBuffer = DefaultShipBuffer
	}
	if cfg.Reporting.SendTimeout == 0 {
		cfg.Reporting.SendTimeout = DefaultSendTimeout
	}

	// Journal defaults
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLitePath == "" {
		cfg.Journal.SQLitePath = DefaultJournalSQLitePath
	}
	if cfg.Journal.Retention.Days == 0 {
		cfg.Journal.Retention.Days = DefaultJournalRetentionDays
	}
	if cfg.Journal.Retention.PruneSchedule == "" {
		cfg.Journal.Retention.PruneSchedule = DefaultJournalPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Metrics.ReportSizeBuckets == nil {
		cfg.Telemetry.Metrics.ReportSizeBuckets = DefaultReportSizeBuckets
	}
}
