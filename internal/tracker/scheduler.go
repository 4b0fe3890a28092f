package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TickFunc performs one poll. A returned error is logged and the next tick
// still fires; polling gives up only on timeout or context cancellation.
type TickFunc func(ctx context.Context) error

// TimeoutFunc runs at most once, when the session exceeds its maximum duration.
type TimeoutFunc func()

// Scheduler drives one goroutine per tracking session. The ticker serializes
// ticks within a session; no second poll for the same payment starts while the
// previous one is in flight.
type Scheduler struct {
	interval    time.Duration
	maxDuration time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewScheduler(interval, maxDuration time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive (got %s)", interval)
	}
	if maxDuration < interval {
		return nil, fmt.Errorf("max poll duration %s must not be below the interval %s", maxDuration, interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		interval:    interval,
		maxDuration: maxDuration,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Schedule starts the polling loop for one session and returns immediately.
// The loop stops when ctx is cancelled or the deadline measured from startedAt
// passes; onTimeout fires only in the latter case.
func (s *Scheduler) Schedule(ctx context.Context, paymentID string, startedAt time.Time, onTick TickFunc, onTimeout TimeoutFunc) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if ctx.Err() != nil {
				return
			}

			if s.now().Sub(startedAt) >= s.maxDuration {
				if onTimeout != nil {
					onTimeout()
				}
				return
			}

			if err := onTick(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("status poll failed; retrying at next interval",
					zap.String("paymentId", paymentID),
					zap.Error(err),
				)
			}
		}
	}()
}
