package report

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/trace"
)

// Scheduler owns the open report cycle: it accumulates finalized traces,
// decides after each completion whether the report must flush (size or
// time threshold), and runs a background timer so low-traffic periods
// still deliver partial reports. Closed reports are handed to an async
// ship worker so delivery never blocks the request path that produced the
// traces.
//
// All mutations of the open report (append, threshold check, reset) happen
// as one atomic step under a single mutex, so a trace-completion flush and
// a timer flush can never both close the same cycle.
type Scheduler struct {
	cfg     *config.ReportingConfig
	sender  *Sender
	metrics *Metrics
	logger  *slog.Logger

	mu           sync.Mutex
	traces       []*trace.Trace
	openedAt     time.Time
	perTraceSize int
	interval     time.Duration
	maxSize      int

	shipChan  chan *closedReport
	ticker    *time.Ticker
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// closedReport is a report cycle closed for delivery, with the estimate
// and trigger that closed it.
type closedReport struct {
	payload      *Payload
	sizeEstimate int
	trigger      string
}

// NewScheduler creates a scheduler and starts its ship worker and
// background flush timer. metrics may be nil.
func NewScheduler(cfg *config.ReportingConfig, sender *Sender, metrics *Metrics) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		sender:   sender,
		metrics:  metrics,
		logger:   slog.Default().With("component", "report.scheduler"),
		interval: cfg.ReportInterval,
		maxSize:  cfg.MaxUncompressedReportSize,
		shipChan: make(chan *closedReport, cfg.ShipBuffer),
		ticker:   time.NewTicker(cfg.ReportInterval),
		done:     make(chan struct{}),
	}

	s.wg.Add(2)
	go s.shipWorker()
	go s.timerLoop()

	s.logger.Info("report scheduler started",
		"report_interval", cfg.ReportInterval,
		"max_uncompressed_report_size", cfg.MaxUncompressedReportSize,
		"send_reports_immediately", cfg.SendReportsImmediately,
	)
	return s
}

// Add appends a finalized trace to the open report and flushes if a
// threshold is reached. In immediate mode the accumulator is bypassed and
// the trace ships in its own single-trace report.
func (s *Scheduler) Add(t *trace.Trace) {
	if t == nil {
		return
	}
	s.metrics.RecordTrace()

	if s.cfg.SendReportsImmediately {
		size := estimateTraceSize(t)
		s.metrics.RecordFlush("immediate", 1, size)
		s.ship(&closedReport{
			payload:      NewPayload(s.cfg.GraphRef, []*trace.Trace{t}),
			sizeEstimate: size,
			trigger:      "immediate",
		})
		return
	}

	s.mu.Lock()
	if len(s.traces) == 0 {
		// Lazy open: the first trace of a cycle stamps openedAt and its
		// size becomes the per-trace proxy for the whole cycle.
		s.openedAt = time.Now()
		s.perTraceSize = estimateTraceSize(t)
	}
	s.traces = append(s.traces, t)

	var cr *closedReport
	switch {
	case s.perTraceSize*len(s.traces) >= s.maxSize:
		cr = s.closeLocked("size")
	case time.Since(s.openedAt) >= s.interval:
		cr = s.closeLocked("interval")
	}
	s.mu.Unlock()

	if cr != nil {
		s.ship(cr)
	}
}

// Flush closes the open report, if any, and delivers it synchronously.
// It is intended for graceful-shutdown paths that must not lose buffered
// traces. Delivery failure is returned but leaves the scheduler usable.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	cr := s.closeLocked("manual")
	s.mu.Unlock()

	if cr == nil {
		return nil
	}
	return s.deliver(ctx, cr)
}

// UpdateThresholds adjusts the flush thresholds at runtime. The open
// cycle keeps accumulating; the new values apply from the next check.
func (s *Scheduler) UpdateThresholds(interval time.Duration, maxSize int) {
	if interval <= 0 || maxSize <= 0 {
		return
	}

	s.mu.Lock()
	s.interval = interval
	s.maxSize = maxSize
	s.mu.Unlock()
	s.ticker.Reset(interval)

	s.logger.Info("flush thresholds updated",
		"report_interval", interval,
		"max_uncompressed_report_size", maxSize,
	)
}

// Close flushes the remaining traces, stops the timer, and drains the
// ship worker.
func (s *Scheduler) Close() error {
	var err error
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SendTimeout)
		defer cancel()
		err = s.Flush(ctx)

		s.ticker.Stop()
		close(s.done)
		s.wg.Wait()
		s.sender.Close()
		s.logger.Info("report scheduler stopped")
	})
	return err
}

// closeLocked closes the open report cycle and re-opens an empty one.
// Returns nil when there is nothing to flush. Caller must hold mu.
func (s *Scheduler) closeLocked(trigger string) *closedReport {
	if len(s.traces) == 0 {
		return nil
	}

	cr := &closedReport{
		payload:      NewPayload(s.cfg.GraphRef, s.traces),
		sizeEstimate: s.perTraceSize * len(s.traces),
		trigger:      trigger,
	}

	s.traces = nil
	s.perTraceSize = 0
	s.openedAt = time.Time{}

	s.metrics.RecordFlush(trigger, len(cr.payload.Traces), cr.sizeEstimate)
	s.logger.Debug("report closed",
		"report_id", cr.payload.ID,
		"trigger", trigger,
		"traces", len(cr.payload.Traces),
		"size_estimate", cr.sizeEstimate,
	)
	return cr
}

// ship enqueues a closed report for async delivery, dropping it when the
// backlog is full.
func (s *Scheduler) ship(cr *closedReport) {
	select {
	case s.shipChan <- cr:
	default:
		s.metrics.RecordDrop()
		s.logger.Error("ship backlog full, dropping report",
			"report_id", cr.payload.ID,
			"traces", len(cr.payload.Traces),
			"backlog_capacity", cap(s.shipChan),
		)
	}
}

// shipWorker drains the ship channel and delivers closed reports. On
// shutdown it drains the remaining backlog before exiting.
func (s *Scheduler) shipWorker() {
	defer s.wg.Done()

	for {
		select {
		case cr := <-s.shipChan:
			s.deliverAsync(cr)

		case <-s.done:
			for {
				select {
				case cr := <-s.shipChan:
					s.deliverAsync(cr)
				default:
					return
				}
			}
		}
	}
}

// timerLoop triggers the flush path on the configured interval so traces
// never sit in the accumulator past the time threshold when no new
// requests arrive.
func (s *Scheduler) timerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.mu.Lock()
			var cr *closedReport
			if len(s.traces) > 0 && time.Since(s.openedAt) >= s.interval {
				cr = s.closeLocked("timer")
			}
			s.mu.Unlock()
			if cr != nil {
				s.ship(cr)
			}

		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) deliverAsync(cr *closedReport) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SendTimeout)
	defer cancel()
	// Failure is logged inside deliver; the batch is dropped, not retried.
	_ = s.deliver(ctx, cr)
}

func (s *Scheduler) deliver(ctx context.Context, cr *closedReport) error {
	result, err := s.sender.Send(ctx, cr.payload)
	if err != nil {
		s.metrics.RecordSend("failure", result)
		s.logger.Error("report delivery failed, dropping batch",
			"report_id", cr.payload.ID,
			"traces", len(cr.payload.Traces),
			"trigger", cr.trigger,
			"error", err,
		)
		return err
	}

	s.metrics.RecordSend("success", result)
	s.logger.Info("report delivered",
		"report_id", cr.payload.ID,
		"traces", result.Traces,
		"trigger", cr.trigger,
		"status", result.StatusCode,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return nil
}
