package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/notify"
)

const (
	// NotificationQueue feeds the downstream delivery pipeline (email/SMS/push).
	NotificationQueue = "member.notifications"
	// NotificationDLQ collects messages the delivery pipeline rejected.
	NotificationDLQ = "dlq.member.notifications"
)

// Publisher publishes notification events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event NotificationEvent) error
	Close() error
}

// NotificationEvent is the broker payload for a member notification.
type NotificationEvent struct {
	PaymentID     string        `json:"paymentId"`
	CorrelationID string        `json:"correlationId,omitempty"`
	Kind          notify.Kind   `json:"kind"`
	Status        domain.Status `json:"status"`
	Message       string        `json:"message"`
	EmittedAt     time.Time     `json:"emittedAt"`
}

func (e NotificationEvent) Validate() error {
	if strings.TrimSpace(e.PaymentID) == "" {
		return fmt.Errorf("paymentId is required")
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid kind %q", e.Kind)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
