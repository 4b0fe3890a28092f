package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitgrid/settlement-tracker/internal/domain"
)

// Kind is the user-facing severity of a notification.
type Kind string

const (
	KindSuccess Kind = "SUCCESS"
	KindError   Kind = "ERROR"
	KindInfo    Kind = "INFO"
)

func (k Kind) String() string { return string(k) }

func (k Kind) IsValid() bool {
	switch k {
	case KindSuccess, KindError, KindInfo:
		return true
	}
	return false
}

// Notification is one user-facing message about a tracked payment.
type Notification struct {
	PaymentID     string
	CorrelationID string
	Kind          Kind
	Status        domain.Status
	Message       string
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.PaymentID) == "" {
		return fmt.Errorf("%w: payment id is required", domain.ErrValidation)
	}
	if !n.Kind.IsValid() {
		return fmt.Errorf("%w: invalid notification kind %q", domain.ErrValidation, n.Kind)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	return nil
}

// Sink delivers notifications to the member-facing surface. Delivery is
// best-effort and at-most-once: callers mark the dedup store before emitting.
type Sink interface {
	Notify(ctx context.Context, notification Notification) error
}

// SettledMessage is the success wording, branched on payment method.
func SettledMessage(method domain.Method) string {
	if method == domain.MethodCash {
		return "Cash payment confirmed. Your membership is now active."
	}
	return "Bank transfer validated. Your membership is now active."
}

// RejectedMessage is the terminal-failure wording. No retry is offered.
func RejectedMessage() string {
	return "We could not confirm your payment. Please contact support."
}

// EscalatedMessage is the one-time informational wording for manual review.
func EscalatedMessage() string {
	return "Your payment is now under manual review. No action is needed."
}

// TimedOutMessage is the tracking-timeout wording. Deliberately distinct from
// rejection: the payment may still settle out-of-band.
func TimedOutMessage() string {
	return "Your payment is still being processed. Check back later."
}
