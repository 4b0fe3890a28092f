package domain

import "time"

// MembershipStatus mirrors the authority's membership record state.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "ACTIVE"
	MembershipInactive MembershipStatus = "INACTIVE"
	MembershipExpired  MembershipStatus = "EXPIRED"
)

func (s MembershipStatus) String() string { return string(s) }

func (s MembershipStatus) IsValid() bool {
	switch s {
	case MembershipActive, MembershipInactive, MembershipExpired:
		return true
	}
	return false
}

// MembershipSnapshot is a read-only projection of the authority's membership
// record. The tracker invalidates it when a payment settles; it never writes
// membership state of its own.
type MembershipSnapshot struct {
	MemberID   string           `gorm:"type:varchar(64);primaryKey"`
	Status     MembershipStatus `gorm:"type:varchar(20);not null"`
	PlanName   string           `gorm:"type:varchar(100)"`
	ValidUntil *time.Time
	FetchedAt  time.Time `gorm:"not null"`
}
