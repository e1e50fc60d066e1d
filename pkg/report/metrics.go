package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/saturn/pkg/config"
)

// Metrics tracks the reporting pipeline.
//
// Metrics:
//   - mercator_saturn_traces_total: finalized traces entering the pipeline
//   - mercator_saturn_reports_total: delivery attempts by outcome
//   - mercator_saturn_flushes_total: report flushes by trigger
//   - mercator_saturn_report_traces: traces per delivered report
//   - mercator_saturn_report_size_bytes: estimated uncompressed report size
//   - mercator_saturn_send_duration_seconds: delivery round-trip time
//   - mercator_saturn_reports_dropped_total: reports dropped before delivery
type Metrics struct {
	tracesTotal  prometheus.Counter
	reportsTotal *prometheus.CounterVec
	flushesTotal *prometheus.CounterVec
	reportTraces prometheus.Histogram
	reportSize   prometheus.Histogram
	sendDuration prometheus.Histogram
	droppedTotal prometheus.Counter
}

// NewMetrics creates and registers pipeline metrics with the provided
// registry.
func NewMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		tracesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "traces_total",
			Help:      "Total number of finalized traces entering the reporting pipeline",
		}),

		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reports_total",
				Help:      "Total number of report delivery attempts by outcome",
			},
			[]string{"outcome"},
		),

		flushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "flushes_total",
				Help:      "Total number of report flushes by trigger",
			},
			[]string{"trigger"},
		),

		reportTraces: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "report_traces",
			Help:      "Number of traces per delivered report",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),

		reportSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "report_size_bytes",
			Help:      "Estimated uncompressed report size in bytes",
			Buckets:   cfg.ReportSizeBuckets,
		}),

		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "send_duration_seconds",
			Help:      "Report delivery round-trip time in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "reports_dropped_total",
			Help:      "Total number of closed reports dropped before delivery",
		}),
	}

	registry.MustRegister(
		m.tracesTotal,
		m.reportsTotal,
		m.flushesTotal,
		m.reportTraces,
		m.reportSize,
		m.sendDuration,
		m.droppedTotal,
	)

	return m
}

// RecordTrace counts a finalized trace entering the pipeline.
func (m *Metrics) RecordTrace() {
	if m == nil {
		return
	}
	m.tracesTotal.Inc()
}

// RecordFlush counts a flush and the closed report's shape.
func (m *Metrics) RecordFlush(trigger string, traces, sizeEstimate int) {
	if m == nil {
		return
	}
	m.flushesTotal.WithLabelValues(trigger).Inc()
	m.reportTraces.Observe(float64(traces))
	m.reportSize.Observe(float64(sizeEstimate))
}

// RecordSend counts a delivery attempt.
func (m *Metrics) RecordSend(outcome string, result *SendResult) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(outcome).Inc()
	if result != nil {
		m.sendDuration.Observe(result.Duration.Seconds())
	}
}

// RecordDrop counts a closed report dropped before delivery.
func (m *Metrics) RecordDrop() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}
