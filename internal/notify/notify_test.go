package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSettledMessageBranchesOnMethod(t *testing.T) {
	t.Parallel()

	transfer := SettledMessage(domain.MethodTransfer)
	cash := SettledMessage(domain.MethodCash)

	if transfer == cash {
		t.Fatal("transfer and cash settlement wording must differ")
	}
	if transfer != "Bank transfer validated. Your membership is now active." {
		t.Fatalf("transfer message = %q", transfer)
	}
	if cash != "Cash payment confirmed. Your membership is now active." {
		t.Fatalf("cash message = %q", cash)
	}
}

func TestTimedOutMessageDistinctFromRejected(t *testing.T) {
	t.Parallel()

	if TimedOutMessage() == RejectedMessage() {
		t.Fatal("timeout wording must not read as a rejection")
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	valid := Notification{
		PaymentID: "pay_1",
		Kind:      KindSuccess,
		Status:    domain.StatusCompleted,
		Message:   "done",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(n *Notification)
	}{
		{name: "missing payment id", mutate: func(n *Notification) { n.PaymentID = "" }},
		{name: "invalid kind", mutate: func(n *Notification) { n.Kind = "TOAST" }},
		{name: "empty message", mutate: func(n *Notification) { n.Message = "  " }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n := valid
			tc.mutate(&n)
			if err := n.Validate(); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestZapSinkLogsNotification(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))

	err := sink.Notify(context.Background(), Notification{
		PaymentID:     "pay_1",
		CorrelationID: "cid-1",
		Kind:          KindSuccess,
		Status:        domain.StatusCompleted,
		Message:       SettledMessage(domain.MethodTransfer),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["paymentId"] != "pay_1" {
		t.Fatalf("paymentId = %v, want pay_1", fields["paymentId"])
	}
	if fields["kind"] != "SUCCESS" {
		t.Fatalf("kind = %v, want SUCCESS", fields["kind"])
	}
}

func TestZapSinkErrorKindLogsAtWarn(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))

	err := sink.Notify(context.Background(), Notification{
		PaymentID: "pay_1",
		Kind:      KindError,
		Status:    domain.StatusFailed,
		Message:   RejectedMessage(),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("level = %s, want warn", entries[0].Level)
	}
}

type fakeSink struct {
	notifyFn func(ctx context.Context, n Notification) error
	calls    int
}

func (f *fakeSink) Notify(ctx context.Context, n Notification) error {
	f.calls++
	if f.notifyFn != nil {
		return f.notifyFn(ctx, n)
	}
	return nil
}

func TestFanoutSinkDeliversToAll(t *testing.T) {
	t.Parallel()

	first := &fakeSink{}
	second := &fakeSink{}

	fanout, err := NewFanoutSink(first, second)
	if err != nil {
		t.Fatalf("NewFanoutSink() error = %v", err)
	}

	err = fanout.Notify(context.Background(), Notification{
		PaymentID: "pay_1",
		Kind:      KindInfo,
		Status:    domain.StatusUnderReview,
		Message:   EscalatedMessage(),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("calls = %d, %d, want 1, 1", first.calls, second.calls)
	}
}

func TestFanoutSinkContinuesPastFailingSink(t *testing.T) {
	t.Parallel()

	failing := &fakeSink{
		notifyFn: func(ctx context.Context, n Notification) error {
			return errors.New("queue down")
		},
	}
	healthy := &fakeSink{}

	fanout, err := NewFanoutSink(failing, healthy)
	if err != nil {
		t.Fatalf("NewFanoutSink() error = %v", err)
	}

	err = fanout.Notify(context.Background(), Notification{
		PaymentID: "pay_1",
		Kind:      KindInfo,
		Status:    domain.StatusUnderReview,
		Message:   EscalatedMessage(),
	})
	if err == nil {
		t.Fatal("expected joined error from failing sink")
	}
	if healthy.calls != 1 {
		t.Fatalf("healthy sink calls = %d, want 1", healthy.calls)
	}
}

func TestNewFanoutSinkRequiresASink(t *testing.T) {
	t.Parallel()

	if _, err := NewFanoutSink(); err == nil {
		t.Fatal("expected error for empty sink list")
	}
	if _, err := NewFanoutSink(nil, nil); err == nil {
		t.Fatal("expected error for all-nil sink list")
	}
}
