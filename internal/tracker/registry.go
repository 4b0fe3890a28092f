package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
)

type session struct {
	domain.TrackingSession
	cancel context.CancelFunc
}

// Registry holds the active tracking sessions for one tracker instance.
// It is constructor-injected and mutated only by the Controller; scheduler and
// reconciler receive session data as parameters and return pure decisions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	changed  bool
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
	}
}

// add registers a session unless the payment is already tracked.
// Reports whether a new session was created.
func (r *Registry) add(paymentID string, method domain.Method, lastStatus domain.Status, startedAt time.Time, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[paymentID]; exists {
		return false
	}

	r.sessions[paymentID] = &session{
		TrackingSession: domain.TrackingSession{
			PaymentID:  paymentID,
			Method:     method,
			LastStatus: lastStatus,
			StartedAt:  startedAt,
			Active:     true,
		},
		cancel: cancel,
	}
	return true
}

// get returns a copy of the session data; the copy keeps callers from
// mutating registry state outside the lock.
func (r *Registry) get(paymentID string) (domain.TrackingSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[paymentID]
	if !ok {
		return domain.TrackingSession{}, false
	}
	return sess.TrackingSession, true
}

func (r *Registry) isActive(paymentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[paymentID]
	return ok && sess.Active
}

func (r *Registry) setLastStatus(paymentID string, status domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[paymentID]; ok {
		sess.LastStatus = status
		r.changed = true
	}
}

// remove deactivates the session, cancels its polling context, and drops the
// registry entry. Idempotent: removing an untracked id is a no-op.
func (r *Registry) remove(paymentID string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[paymentID]
	if ok {
		sess.Active = false
		delete(r.sessions, paymentID)
	}
	r.mu.Unlock()

	if ok && sess.cancel != nil {
		sess.cancel()
	}
	return ok
}

// removeAll tears down every session. Used on shutdown and logout.
func (r *Registry) removeAll() {
	r.mu.Lock()
	removed := make([]*session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sess.Active = false
		removed = append(removed, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, sess := range removed {
		if sess.cancel != nil {
			sess.cancel()
		}
	}
}

func (r *Registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SessionSnapshot is one entry of a read-only registry view.
type SessionSnapshot struct {
	PaymentID  string
	Method     domain.Method
	LastStatus domain.Status
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Snapshot returns the tracked sessions and whether any status changed since
// the previous read. Reading resets the change flag.
func (r *Registry) Snapshot(now time.Time) ([]SessionSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]SessionSnapshot, 0, len(r.sessions))
	for _, sess := range r.sessions {
		snapshots = append(snapshots, SessionSnapshot{
			PaymentID:  sess.PaymentID,
			Method:     sess.Method,
			LastStatus: sess.LastStatus,
			StartedAt:  sess.StartedAt,
			Elapsed:    now.Sub(sess.StartedAt),
		})
	}

	changed := r.changed
	r.changed = false
	return snapshots, changed
}
