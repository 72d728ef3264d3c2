package scheduler

import (
	"context"
	"time"

	"opsboard_backend/internal/delaynotice/scanner"
	"opsboard_backend/platform/logger"
)

// Loop drives the recurring timer-triggered scan passes. A failed pass is
// logged and the ticker carries on; the next tick is the retry.
type Loop struct {
	runner   ScanRunner
	interval time.Duration
	log      *logger.Logger
}

// NewLoop creates a scan loop with the given tick interval.
func NewLoop(runner ScanRunner, interval time.Duration, log *logger.Logger) *Loop {
	return &Loop{runner: runner, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. One pass runs immediately on startup so
// a freshly deployed instance does not wait a full interval before noticing
// overdue work.
func (l *Loop) Run(ctx context.Context) {
	l.pass(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("scan loop stopped")
			return
		case <-ticker.C:
			l.pass(ctx)
		}
	}
}

func (l *Loop) pass(ctx context.Context) {
	if _, err := l.runner.Run(ctx, scanner.TriggerTimer); err != nil {
		l.log.Error("scan pass failed", "error", err.Error())
	}
}
