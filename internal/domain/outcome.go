package domain

import "time"

// Outcome is the result of reconciling a previous status against a fresh one.
type Outcome string

const (
	// OutcomeUnchanged: nothing new; no notification, session continues.
	OutcomeUnchanged Outcome = "UNCHANGED"
	// OutcomeSettled: payment completed; notify success, refresh membership, stop.
	OutcomeSettled Outcome = "SETTLED"
	// OutcomeRejected: payment failed; notify failure, stop. Terminal and final.
	OutcomeRejected Outcome = "REJECTED"
	// OutcomeEscalated: moved to manual review; notify once, session continues.
	OutcomeEscalated Outcome = "ESCALATED"
)

func (o Outcome) String() string { return string(o) }

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeUnchanged, OutcomeSettled, OutcomeRejected, OutcomeEscalated:
		return true
	}
	return false
}

// IsTerminal reports whether the outcome ends the tracking session.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeSettled || o == OutcomeRejected
}

// StatusTransition is one audit record of a reconciled poll result.
type StatusTransition struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	PaymentID     string  `gorm:"type:varchar(64);not null"`
	CorrelationID string  `gorm:"type:varchar(36)"`
	FromStatus    *Status `gorm:"type:varchar(20)"`
	ToStatus      Status  `gorm:"type:varchar(20);not null"`
	Outcome       Outcome `gorm:"type:varchar(20);not null"`
	Anomaly       bool    `gorm:"not null;default:false"`
	ObservedAt    time.Time
}
