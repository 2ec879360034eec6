package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/audittrail/pkg/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger deletes audit events recorded before cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Engine purges audit events older than the retention window on a cron
// schedule.
type Engine struct {
	schedule  cron.Schedule
	retention time.Duration
	purger    Purger
	logger    *zap.Logger
	clock     clock.Clock
}

// NewEngine builds an engine keeping retentionDays days of events. A
// retentionDays of zero or less disables purging.
func NewEngine(expr string, retentionDays int, purger Purger, logger *zap.Logger) (*Engine, error) {
	return NewEngineWithClock(expr, retentionDays, purger, logger, clock.System{})
}

// NewEngineWithClock is NewEngine with an injected clock.
func NewEngineWithClock(expr string, retentionDays int, purger Purger, logger *zap.Logger, clk clock.Clock) (*Engine, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var window time.Duration
	if retentionDays > 0 {
		window = time.Duration(retentionDays) * 24 * time.Hour
	}

	return &Engine{
		schedule:  schedule,
		retention: window,
		purger:    purger,
		logger:    logger,
		clock:     clk,
	}, nil
}

// Enabled reports whether the engine purges anything.
func (e *Engine) Enabled() bool {
	return e.retention > 0
}

// Run purges on every scheduled tick until ctx is cancelled. A failed purge
// is logged and retried at the next tick.
func (e *Engine) Run(ctx context.Context) error {
	if !e.Enabled() {
		e.logger.Info("retention disabled, not scheduling purges")
		return nil
	}

	for {
		now := e.clock.Now()
		next := e.schedule.Next(now)
		e.logger.Debug("next retention purge scheduled", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if _, err := e.RunOnce(ctx); err != nil {
				e.logger.Error("retention purge failed", zap.Error(err))
			}
		}
	}
}

// RunOnce deletes every event older than the retention window and returns
// the number removed.
func (e *Engine) RunOnce(ctx context.Context) (int64, error) {
	if !e.Enabled() {
		return 0, nil
	}

	cutoff := e.clock.Now().UTC().Add(-e.retention)
	deleted, err := e.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge events before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	e.logger.Info("retention purge completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted))
	return deleted, nil
}
