package config

import "time"

// Config is the root configuration structure for Mercator Saturn.
// It contains all configuration sections for trace reporting, the local
// trace journal, and telemetry.
type Config struct {
	// Reporting contains configuration for the trace reporting pipeline:
	// ingestion endpoint, credentials, and flush thresholds.
	Reporting ReportingConfig `yaml:"reporting"`

	// Journal contains configuration for the optional local trace journal
	// used for debugging and inspection.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for the agent's own observability:
	// logging and Prometheus metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ReportingConfig contains configuration for the trace reporting pipeline.
type ReportingConfig struct {
	// EndpointURL is the ingestion endpoint reports are delivered to.
	// Default: "https://ingest.saturn.mercator.dev/api/traces"
	EndpointURL string `yaml:"endpoint_url"`

	// GraphRef identifies the graph the traces belong to, in
	// "name@variant" form. Required.
	GraphRef string `yaml:"graph_ref"`

	// APIKey is the ingestion credential sent with every report.
	// This should typically be loaded from an environment variable.
	// Required.
	APIKey string `yaml:"api_key"`

	// SendReportsImmediately disables batching: every finalized trace is
	// shipped in its own single-trace report. Intended for short-lived
	// processes that cannot rely on a background flush timer.
	// Default: false
	SendReportsImmediately bool `yaml:"send_reports_immediately"`

	// ReportInterval is the time threshold for flushing the open report,
	// and the period of the background flush timer.
	// Default: 10s
	ReportInterval time.Duration `yaml:"report_interval"`

	// MaxUncompressedReportSize is the size threshold in bytes for the
	// open report, estimated before compression.
	// Default: 4194304 (4 MiB)
	MaxUncompressedReportSize int `yaml:"max_uncompressed_report_size"`

	// ShipBuffer is the size of the async delivery channel buffer.
	// Closed reports beyond this backlog are dropped with a logged error.
	// Default: 16
	ShipBuffer int `yaml:"ship_buffer"`

	// SendTimeout is the timeout for a single delivery attempt.
	// Default: 10s
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// JournalConfig contains configuration for the local trace journal.
type JournalConfig struct {
	// Enabled controls whether finalized traces are also written to the
	// local journal. Delivery never depends on the journal.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend specifies the journal storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/journal.db"
	SQLitePath string `yaml:"sqlite_path"`

	// Retention contains journal retention configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains journal retention configuration.
type RetentionConfig struct {
	// Days is the number of days to retain journal entries.
	// 0 means keep entries forever (no pruning).
	// Default: 7
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for the agent's observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether pipeline metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "saturn"
	Subsystem string `yaml:"subsystem"`

	// ReportSizeBuckets defines histogram buckets for report sizes (bytes).
	// Default: exponential 1KB to 4MB
	ReportSizeBuckets []float64 `yaml:"report_size_buckets"`
}
