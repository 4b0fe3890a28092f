package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the settlement state of a payment as reported by the authority.
// The authority owns this value; it is never inferred locally.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusCompleted   Status = "COMPLETED"
	StatusFailed      Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further polling is useful.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Rank places statuses on the strict order pending < under_review < {completed, failed}.
// Both terminal statuses share the top rank; a fresh status with a lower rank
// than the previous one is a regression and must be ignored.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusUnderReview:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Method is the deferred payment method. Card payments settle synchronously
// and never enter the tracker.
type Method string

const (
	MethodTransfer Method = "TRANSFER"
	MethodCash     Method = "CASH"
)

func (m Method) String() string { return string(m) }

func (m Method) IsValid() bool {
	switch m {
	case MethodTransfer, MethodCash:
		return true
	}
	return false
}

func ParseMethodFromString(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: invalid payment method %q", ErrValidation, s)
	}
	return m, nil
}

// TrackedPayment is a deferred payment whose settlement the tracker observes.
type TrackedPayment struct {
	ID                 string  `gorm:"type:varchar(64);primaryKey"`
	MemberID           string  `gorm:"type:varchar(64);not null"`
	Method             Method  `gorm:"type:varchar(10);not null"`
	Status             Status  `gorm:"type:varchar(20);not null"`
	AmountCents        int64   `gorm:"not null"`
	Currency           string  `gorm:"type:varchar(3);not null;default:EUR"`
	LastNotifiedStatus *Status `gorm:"type:varchar(20)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (p *TrackedPayment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: payment id is required", ErrValidation)
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("%w: invalid payment method %q", ErrValidation, p.Method)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, p.Status)
	}
	if p.AmountCents < 0 {
		return fmt.Errorf("%w: amount must not be negative (got %d)", ErrValidation, p.AmountCents)
	}
	return nil
}
