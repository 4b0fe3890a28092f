package domain

import "time"

// TrackingSession is one active polling session for a tracked payment.
// The session references the payment by id only; the authority remains the
// owner of payment truth.
type TrackingSession struct {
	PaymentID  string
	Method     Method
	LastStatus Status
	StartedAt  time.Time
	Active     bool
}

// Elapsed returns the wall-clock tracking time at the given instant.
func (s *TrackingSession) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
