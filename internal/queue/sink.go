package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/notify"
)

var _ notify.Sink = (*NotificationSink)(nil)

// NotificationSink bridges the tracker's notification port onto the broker,
// handing messages to the downstream delivery pipeline.
type NotificationSink struct {
	publisher Publisher
	now       func() time.Time
}

func NewNotificationSink(publisher Publisher) (*NotificationSink, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	return &NotificationSink{
		publisher: publisher,
		now:       time.Now,
	}, nil
}

func (s *NotificationSink) Notify(ctx context.Context, notification notify.Notification) error {
	if s == nil || s.publisher == nil {
		return fmt.Errorf("notification sink is not initialized")
	}
	if err := notification.Validate(); err != nil {
		return err
	}

	return s.publisher.Publish(ctx, NotificationEvent{
		PaymentID:     notification.PaymentID,
		CorrelationID: notification.CorrelationID,
		Kind:          notification.Kind,
		Status:        notification.Status,
		Message:       notification.Message,
		EmittedAt:     s.now().UTC(),
	})
}
