package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

// PruneTarget names a log table for the retention pruner's log lines.
type PruneTarget struct {
	Name  string
	Store store.Pruner
}

// RetentionPruner periodically deletes entry and notification rows older
// than a configurable retention period.  It runs as a background goroutine
// and is safe to stop via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type RetentionPruner struct {
	targets   []PruneTarget
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

type PrunerConfig struct {
	// RetentionDays is how many days of log history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewRetentionPruner creates a pruner but does not start it.
func NewRetentionPruner(targets []PruneTarget, cfg PrunerConfig, logger *slog.Logger) *RetentionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &RetentionPruner{
		targets:   targets,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start runs an immediate prune, then repeats on the configured interval
// until ctx is cancelled or Stop is called.
func (p *RetentionPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("retention pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Info("retention pruner started",
		slog.Int("retention_days", int(p.retention.Hours()/24)),
		slog.Int("interval_hours", int(p.interval.Hours())))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *RetentionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// PruneOnce deletes expired rows from every target and returns the total.
func (p *RetentionPruner) PruneOnce(ctx context.Context) int64 {
	if p.retention <= 0 {
		return 0
	}
	cutoff := p.now().UTC().Add(-p.retention)
	var total int64
	for _, t := range p.targets {
		deleted, err := t.Store.PruneOlderThan(ctx, cutoff)
		if err != nil {
			p.logger.ErrorContext(ctx, "retention prune failed",
				slog.String("target", t.Name), slog.Any("err", err))
			continue
		}
		if deleted > 0 {
			p.logger.InfoContext(ctx, "retention prune",
				slog.String("target", t.Name),
				slog.Int64("deleted", deleted),
				slog.String("cutoff", cutoff.Format(time.RFC3339)))
		}
		total += deleted
	}
	return total
}

func (p *RetentionPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.PruneOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}
