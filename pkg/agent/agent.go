package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/instrument"
	"mercator-hq/saturn/pkg/journal"
	"mercator-hq/saturn/pkg/report"
	"mercator-hq/saturn/pkg/trace"
)

// Agent ties the instrumentation and reporting pipeline together for a
// host process: it wraps schemas, collects finalized traces, journals
// them when configured, and ships batched reports to the ingestion
// endpoint.
//
// One Agent serves one graph ref. A process embedding several graphs
// runs several agents.
type Agent struct {
	cfg          *config.Config
	instrumenter *instrument.Instrumenter
	extension    *instrument.Extension
	scheduler    *report.Scheduler
	journal      journal.Storage
	pruner       *journal.Pruner
	registry     *prometheus.Registry
	watcher      *config.Watcher
	logger       *slog.Logger

	mu        sync.Mutex
	extended  map[*graphql.Schema]bool
	closeOnce sync.Once
	closeErr  error
}

// New creates an agent from a validated-or-validatable configuration.
// Missing credentials (graph ref, API key) are a hard error: the agent
// must not run half-configured and silently drop every report.
func New(cfg *config.Config) (*Agent, error) {
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		logger:   slog.Default().With("component", "agent"),
		extended: make(map[*graphql.Schema]bool),
	}

	var metrics *report.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		metrics = report.NewMetrics(&cfg.Telemetry.Metrics, a.registry)
	}

	a.instrumenter = instrument.NewInstrumenter()
	a.extension = instrument.NewExtension(a.handleTrace)
	a.scheduler = report.NewScheduler(&cfg.Reporting, report.NewSender(&cfg.Reporting), metrics)

	if cfg.Journal.Enabled {
		storage, err := journal.NewStorage(&cfg.Journal)
		if err != nil {
			a.scheduler.Close()
			return nil, fmt.Errorf("failed to open trace journal: %w", err)
		}
		a.journal = storage

		a.pruner = journal.NewPruner(storage, &cfg.Journal.Retention)
		if err := a.pruner.Start(context.Background()); err != nil {
			storage.Close()
			a.scheduler.Close()
			return nil, fmt.Errorf("failed to start journal retention: %w", err)
		}
	}

	a.logger.Info("saturn agent started",
		"graph_ref", cfg.Reporting.GraphRef,
		"endpoint", cfg.Reporting.EndpointURL,
		"journal_enabled", cfg.Journal.Enabled,
	)
	return a, nil
}

// InstrumentSchema wraps the schema's resolvers and registers the agent's
// lifecycle extension on it. Calling it again for the same schema is a
// no-op, so fields are never double-measured and traces never complete
// twice.
func (a *Agent) InstrumentSchema(schema *graphql.Schema) error {
	if err := a.instrumenter.WrapSchema(schema); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.extended[schema] {
		return nil
	}
	schema.AddExtensions(a.extension)
	a.extended[schema] = true
	return nil
}

// Extension returns the lifecycle extension, for hosts that register
// extensions themselves. Such hosts still call InstrumentSchema or
// WrapSchema on the instrumenter to get resolver timings.
func (a *Agent) Extension() *instrument.Extension {
	return a.extension
}

// Registry returns the agent's metric registry for the host to expose.
func (a *Agent) Registry() *prometheus.Registry {
	return a.registry
}

// Journal returns the journal storage, or nil when journaling is
// disabled.
func (a *Agent) Journal() journal.Storage {
	return a.journal
}

// Flush closes the open report and delivers it synchronously. Intended
// for shutdown paths and short-lived processes.
func (a *Agent) Flush(ctx context.Context) error {
	return a.scheduler.Flush(ctx)
}

// ApplyConfig adjusts the runtime-tunable settings from a newer
// configuration. Only the flush thresholds are hot-reloadable; changes
// to credentials, endpoint, or journal settings require a restart and
// are logged when ignored.
func (a *Agent) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	a.scheduler.UpdateThresholds(cfg.Reporting.ReportInterval, cfg.Reporting.MaxUncompressedReportSize)

	if cfg.Reporting.GraphRef != a.cfg.Reporting.GraphRef ||
		cfg.Reporting.EndpointURL != a.cfg.Reporting.EndpointURL ||
		cfg.Reporting.APIKey != a.cfg.Reporting.APIKey {
		a.logger.Warn("credential or endpoint changes require a restart, ignoring")
	}
}

// WatchConfig starts a file watcher on the configuration file and applies
// threshold changes as the file is edited.
func (a *Agent) WatchConfig(path string) error {
	w, err := config.NewWatcher(path, a.ApplyConfig)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// Close flushes buffered traces and releases all agent resources. It is
// safe to call more than once.
func (a *Agent) Close() error {
	a.closeOnce.Do(func() {
		if a.watcher != nil {
			if err := a.watcher.Stop(); err != nil {
				a.logger.Error("failed to stop config watcher", "error", err)
			}
		}
		if a.pruner != nil {
			a.pruner.Stop()
		}

		a.closeErr = a.scheduler.Close()

		if a.journal != nil {
			if err := a.journal.Close(); err != nil {
				a.logger.Error("failed to close trace journal", "error", err)
			}
		}
		a.logger.Info("saturn agent stopped")
	})
	return a.closeErr
}

// handleTrace receives each finalized trace from the extension. The
// journal write is best-effort and can never delay or fail delivery.
func (a *Agent) handleTrace(t *trace.Trace) {
	if a.journal != nil {
		entry, err := journal.NewEntry(t)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			err = a.journal.Store(ctx, entry)
			cancel()
		}
		if err != nil {
			a.logger.Warn("journal write failed",
				"trace_id", t.ID,
				"error", err,
			)
		}
	}

	a.scheduler.Add(t)
}
