package tracker

import (
	"testing"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/notify"
)

func TestReconcile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		previous    domain.Status
		fresh       domain.Status
		method      domain.Method
		wantOutcome domain.Outcome
		wantNotify  bool
		wantKind    notify.Kind
		wantRefresh bool
		wantAnomaly bool
	}{
		{
			name:        "same status is unchanged",
			previous:    domain.StatusPending,
			fresh:       domain.StatusPending,
			method:      domain.MethodTransfer,
			wantOutcome: domain.OutcomeUnchanged,
		},
		{
			name:        "pending to completed settles",
			previous:    domain.StatusPending,
			fresh:       domain.StatusCompleted,
			method:      domain.MethodTransfer,
			wantOutcome: domain.OutcomeSettled,
			wantNotify:  true,
			wantKind:    notify.KindSuccess,
			wantRefresh: true,
		},
		{
			name:        "under review to completed settles",
			previous:    domain.StatusUnderReview,
			fresh:       domain.StatusCompleted,
			method:      domain.MethodCash,
			wantOutcome: domain.OutcomeSettled,
			wantNotify:  true,
			wantKind:    notify.KindSuccess,
			wantRefresh: true,
		},
		{
			name:        "pending to failed rejects",
			previous:    domain.StatusPending,
			fresh:       domain.StatusFailed,
			method:      domain.MethodTransfer,
			wantOutcome: domain.OutcomeRejected,
			wantNotify:  true,
			wantKind:    notify.KindError,
		},
		{
			name:        "under review to failed rejects",
			previous:    domain.StatusUnderReview,
			fresh:       domain.StatusFailed,
			method:      domain.MethodCash,
			wantOutcome: domain.OutcomeRejected,
			wantNotify:  true,
			wantKind:    notify.KindError,
		},
		{
			name:        "pending to under review escalates",
			previous:    domain.StatusPending,
			fresh:       domain.StatusUnderReview,
			method:      domain.MethodTransfer,
			wantOutcome: domain.OutcomeEscalated,
			wantNotify:  true,
			wantKind:    notify.KindInfo,
		},
		{
			name:        "regression to pending is ignored and flagged",
			previous:    domain.StatusUnderReview,
			fresh:       domain.StatusPending,
			method:      domain.MethodTransfer,
			wantOutcome: domain.OutcomeUnchanged,
			wantAnomaly: true,
		},
		{
			name:        "flip between terminal statuses is ignored and flagged",
			previous:    domain.StatusCompleted,
			fresh:       domain.StatusFailed,
			method:      domain.MethodTransfer,
			wantOutcome: domain.OutcomeUnchanged,
			wantAnomaly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decision := Reconcile(tt.previous, tt.fresh, tt.method)

			if decision.Outcome != tt.wantOutcome {
				t.Fatalf("outcome = %s, want %s", decision.Outcome, tt.wantOutcome)
			}
			if decision.Notify != tt.wantNotify {
				t.Fatalf("notify = %v, want %v", decision.Notify, tt.wantNotify)
			}
			if tt.wantNotify && decision.NotifyKind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", decision.NotifyKind, tt.wantKind)
			}
			if tt.wantNotify && decision.Message == "" {
				t.Fatal("notifying decision must carry a message")
			}
			if decision.RefreshMembership != tt.wantRefresh {
				t.Fatalf("refreshMembership = %v, want %v", decision.RefreshMembership, tt.wantRefresh)
			}
			if decision.Anomaly != tt.wantAnomaly {
				t.Fatalf("anomaly = %v, want %v", decision.Anomaly, tt.wantAnomaly)
			}
		})
	}
}

func TestReconcileSettledMessageFollowsMethod(t *testing.T) {
	t.Parallel()

	transfer := Reconcile(domain.StatusPending, domain.StatusCompleted, domain.MethodTransfer)
	cash := Reconcile(domain.StatusPending, domain.StatusCompleted, domain.MethodCash)

	if transfer.Message != notify.SettledMessage(domain.MethodTransfer) {
		t.Fatalf("transfer message = %q", transfer.Message)
	}
	if cash.Message != notify.SettledMessage(domain.MethodCash) {
		t.Fatalf("cash message = %q", cash.Message)
	}
	if transfer.Message == cash.Message {
		t.Fatal("settled wording must branch on payment method")
	}
}
