package queue

import (
	"context"
	"testing"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/notify"
)

type fakePublisher struct {
	publishFn func(ctx context.Context, event NotificationEvent) error
}

func (f *fakePublisher) Publish(ctx context.Context, event NotificationEvent) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, event)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestNotificationSinkPublishesEvent(t *testing.T) {
	t.Parallel()

	var got NotificationEvent
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, event NotificationEvent) error {
			got = event
			return nil
		},
	}

	sink, err := NewNotificationSink(publisher)
	if err != nil {
		t.Fatalf("NewNotificationSink() error = %v", err)
	}
	sink.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	err = sink.Notify(context.Background(), notify.Notification{
		PaymentID:     "pay_1",
		CorrelationID: "cid-1",
		Kind:          notify.KindSuccess,
		Status:        domain.StatusCompleted,
		Message:       notify.SettledMessage(domain.MethodCash),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if got.PaymentID != "pay_1" {
		t.Fatalf("paymentId = %s, want pay_1", got.PaymentID)
	}
	if got.Kind != notify.KindSuccess {
		t.Fatalf("kind = %s, want SUCCESS", got.Kind)
	}
	if got.EmittedAt.IsZero() {
		t.Fatal("emittedAt should be stamped")
	}
}

func TestNotificationSinkRejectsInvalidNotification(t *testing.T) {
	t.Parallel()

	sink, err := NewNotificationSink(&fakePublisher{})
	if err != nil {
		t.Fatalf("NewNotificationSink() error = %v", err)
	}

	err = sink.Notify(context.Background(), notify.Notification{})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewNotificationSinkRequiresPublisher(t *testing.T) {
	t.Parallel()

	if _, err := NewNotificationSink(nil); err == nil {
		t.Fatal("expected error for nil publisher")
	}
}
