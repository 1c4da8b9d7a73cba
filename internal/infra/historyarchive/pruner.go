package historyarchive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yanqian/air-quality-advisor/pkg/util"
)

// Pruner periodically drops archived days older than the retention window.
type Pruner struct {
	store     Store
	schedule  string
	retention time.Duration
	timeout   time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner builds a pruner. An empty schedule or non-positive retention disables it.
func NewPruner(store Store, schedule string, retention time.Duration, logger *slog.Logger) *Pruner {
	return &Pruner{
		store:     store,
		schedule:  schedule,
		retention: retention,
		timeout:   time.Minute,
		cron:      cron.New(),
		logger:    logger.With("component", "historyarchive.pruner"),
		now:       util.NowUTC,
	}
}

// Start registers the job and starts the scheduler.
func (p *Pruner) Start() error {
	if p.schedule == "" || p.retention <= 0 {
		p.logger.Info("history pruning disabled")
		return nil
	}
	if _, err := p.cron.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if _, err := p.RunOnce(ctx); err != nil {
			p.logger.Error("history prune failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule history pruning %q: %w", p.schedule, err)
	}
	p.cron.Start()
	p.logger.Info("history pruning scheduled", "schedule", p.schedule, "retention", p.retention.String())
	return nil
}

// Stop halts the scheduler and waits for a running job or ctx.
func (p *Pruner) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce prunes immediately.
func (p *Pruner) RunOnce(ctx context.Context) (int, error) {
	cutoff := p.now().Add(-p.retention)
	removed, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	p.logger.Info("history pruned", "removed", removed, "cutoff", dayOf(cutoff).Format(dayLayout))
	return removed, nil
}
