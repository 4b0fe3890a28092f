package tracker

import (
	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/notify"
)

// Decision is the pure result of reconciling one poll response against the
// session's last known status. The controller applies the side effects.
type Decision struct {
	Outcome           domain.Outcome
	Notify            bool
	NotifyKind        notify.Kind
	Message           string
	RefreshMembership bool
	Anomaly           bool
}

// Reconcile compares the previous and fresh statuses and decides what follows.
// It never performs I/O and never mutates state.
//
// Regressions (fresh rank below previous) are ignored and flagged as anomalies:
// the authority owns status truth, but a replica lagging behind must not make
// the tracker walk backwards or re-notify.
func Reconcile(previous, fresh domain.Status, method domain.Method) Decision {
	if fresh == previous {
		return Decision{Outcome: domain.OutcomeUnchanged}
	}

	if fresh.Rank() <= previous.Rank() {
		return Decision{Outcome: domain.OutcomeUnchanged, Anomaly: true}
	}

	switch fresh {
	case domain.StatusCompleted:
		return Decision{
			Outcome:           domain.OutcomeSettled,
			Notify:            true,
			NotifyKind:        notify.KindSuccess,
			Message:           notify.SettledMessage(method),
			RefreshMembership: true,
		}
	case domain.StatusFailed:
		return Decision{
			Outcome:    domain.OutcomeRejected,
			Notify:     true,
			NotifyKind: notify.KindError,
			Message:    notify.RejectedMessage(),
		}
	case domain.StatusUnderReview:
		return Decision{
			Outcome:    domain.OutcomeEscalated,
			Notify:     true,
			NotifyKind: notify.KindInfo,
			Message:    notify.EscalatedMessage(),
		}
	}

	return Decision{Outcome: domain.OutcomeUnchanged, Anomaly: true}
}
