package notify

import (
	"context"
	"errors"
	"fmt"
)

var _ Sink = (*FanoutSink)(nil)

// FanoutSink delivers a notification to every configured sink. A failing sink
// does not block the others; errors are joined and reported to the caller.
type FanoutSink struct {
	sinks []Sink
}

func NewFanoutSink(sinks ...Sink) (*FanoutSink, error) {
	filtered := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("at least one sink is required")
	}

	return &FanoutSink{sinks: filtered}, nil
}

func (s *FanoutSink) Notify(ctx context.Context, notification Notification) error {
	if s == nil || len(s.sinks) == 0 {
		return fmt.Errorf("fanout sink is not initialized")
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
