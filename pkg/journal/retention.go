package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/saturn/pkg/config"
)

// Pruner enforces the journal retention policy: entries whose trace start
// time is older than the configured retention period are deleted on a
// cron schedule.
type Pruner struct {
	storage Storage
	cfg     *config.RetentionConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewPruner creates a retention pruner for the given storage backend.
func NewPruner(storage Storage, cfg *config.RetentionConfig) *Pruner {
	return &Pruner{
		storage: storage,
		cfg:     cfg,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "journal.retention"),
	}
}

// Prune deletes entries older than the retention period and returns how
// many were removed. A retention of 0 days disables pruning.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.cfg.Days <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.cfg.Days)
	deleted, err := p.storage.Delete(ctx, &Query{EndTime: &cutoff})
	if err != nil {
		return 0, NewRetentionError(p.cfg.Days, err)
	}

	if deleted > 0 {
		p.logger.Info("journal entries pruned",
			"deleted_count", deleted,
			"retention_days", p.cfg.Days,
		)
	} else {
		p.logger.Debug("no journal entries to prune",
			"retention_days", p.cfg.Days,
		)
	}
	return deleted, nil
}

// Start begins scheduled pruning based on the configured cron expression.
// If the schedule is empty or retention is disabled, Start does nothing.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.PruneSchedule == "" || p.cfg.Days <= 0 {
		p.logger.Info("journal retention disabled, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(p.cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.cfg.PruneSchedule, err)
	}

	_, err := p.cron.AddFunc(p.cfg.PruneSchedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled journal pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule journal pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("journal retention scheduler started",
		"schedule", p.cfg.PruneSchedule,
		"retention_days", p.cfg.Days,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running prune to complete.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		<-p.cron.Stop().Done()
		p.running = false
		p.logger.Info("journal retention scheduler stopped")
	}
}

// NextPruning returns the time of the next scheduled prune, or nil when
// the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
