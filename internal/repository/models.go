package repository

import (
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
)

// PaymentModel is the persistence model for the tracked_payments table.
type PaymentModel struct {
	ID                 string         `gorm:"type:varchar(64);primaryKey"`
	MemberID           string         `gorm:"type:varchar(64);not null"`
	Method             domain.Method  `gorm:"type:varchar(10);not null"`
	Status             domain.Status  `gorm:"type:varchar(20);not null"`
	AmountCents        int64          `gorm:"not null"`
	Currency           string         `gorm:"type:varchar(3);not null;default:EUR"`
	LastNotifiedStatus *domain.Status `gorm:"type:varchar(20)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (PaymentModel) TableName() string {
	return "tracked_payments"
}

// TransitionModel is the persistence model for status_transitions.
type TransitionModel struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	PaymentID     string         `gorm:"type:varchar(64);not null;index"`
	CorrelationID string         `gorm:"type:varchar(36)"`
	FromStatus    *domain.Status `gorm:"type:varchar(20)"`
	ToStatus      domain.Status  `gorm:"type:varchar(20);not null"`
	Outcome       domain.Outcome `gorm:"type:varchar(20);not null"`
	Anomaly       bool           `gorm:"not null;default:false"`
	ObservedAt    time.Time      `gorm:"not null"`
}

func (TransitionModel) TableName() string {
	return "status_transitions"
}

// MembershipModel is the persistence model for membership_snapshots.
type MembershipModel struct {
	MemberID   string                  `gorm:"type:varchar(64);primaryKey"`
	Status     domain.MembershipStatus `gorm:"type:varchar(20);not null"`
	PlanName   string                  `gorm:"type:varchar(100)"`
	ValidUntil *time.Time
	FetchedAt  time.Time `gorm:"not null"`
}

func (MembershipModel) TableName() string {
	return "membership_snapshots"
}

func paymentModelFromDomain(p *domain.TrackedPayment) *PaymentModel {
	if p == nil {
		return nil
	}

	return &PaymentModel{
		ID:                 p.ID,
		MemberID:           p.MemberID,
		Method:             p.Method,
		Status:             p.Status,
		AmountCents:        p.AmountCents,
		Currency:           p.Currency,
		LastNotifiedStatus: p.LastNotifiedStatus,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func paymentModelToDomain(m *PaymentModel) *domain.TrackedPayment {
	if m == nil {
		return nil
	}

	return &domain.TrackedPayment{
		ID:                 m.ID,
		MemberID:           m.MemberID,
		Method:             m.Method,
		Status:             m.Status,
		AmountCents:        m.AmountCents,
		Currency:           m.Currency,
		LastNotifiedStatus: m.LastNotifiedStatus,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func transitionModelFromDomain(t *domain.StatusTransition) *TransitionModel {
	if t == nil {
		return nil
	}

	return &TransitionModel{
		ID:            t.ID,
		PaymentID:     t.PaymentID,
		CorrelationID: t.CorrelationID,
		FromStatus:    t.FromStatus,
		ToStatus:      t.ToStatus,
		Outcome:       t.Outcome,
		Anomaly:       t.Anomaly,
		ObservedAt:    t.ObservedAt,
	}
}

func transitionModelToDomain(m *TransitionModel) *domain.StatusTransition {
	if m == nil {
		return nil
	}

	return &domain.StatusTransition{
		ID:            m.ID,
		PaymentID:     m.PaymentID,
		CorrelationID: m.CorrelationID,
		FromStatus:    m.FromStatus,
		ToStatus:      m.ToStatus,
		Outcome:       m.Outcome,
		Anomaly:       m.Anomaly,
		ObservedAt:    m.ObservedAt,
	}
}

func membershipModelFromDomain(s *domain.MembershipSnapshot) *MembershipModel {
	if s == nil {
		return nil
	}

	return &MembershipModel{
		MemberID:   s.MemberID,
		Status:     s.Status,
		PlanName:   s.PlanName,
		ValidUntil: s.ValidUntil,
		FetchedAt:  s.FetchedAt,
	}
}

func membershipModelToDomain(m *MembershipModel) *domain.MembershipSnapshot {
	if m == nil {
		return nil
	}

	return &domain.MembershipSnapshot{
		MemberID:   m.MemberID,
		Status:     m.Status,
		PlanName:   m.PlanName,
		ValidUntil: m.ValidUntil,
		FetchedAt:  m.FetchedAt,
	}
}
