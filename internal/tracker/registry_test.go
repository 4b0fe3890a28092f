package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
)

func TestRegistryAddIsIdempotent(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	now := time.Now()

	if !registry.add("pay_1", domain.MethodTransfer, domain.StatusPending, now, nil) {
		t.Fatal("first add should create the session")
	}
	if registry.add("pay_1", domain.MethodTransfer, domain.StatusPending, now, nil) {
		t.Fatal("second add must be a no-op")
	}
	if registry.len() != 1 {
		t.Fatalf("len = %d, want 1", registry.len())
	}
}

func TestRegistryRemoveCancelsSession(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	registry.add("pay_1", domain.MethodCash, domain.StatusPending, time.Now(), cancel)

	if !registry.remove("pay_1") {
		t.Fatal("remove should report an existing session")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("session context should be cancelled on removal")
	}

	if registry.remove("pay_1") {
		t.Fatal("removing an untracked id must be a no-op")
	}
	if registry.isActive("pay_1") {
		t.Fatal("removed session must not be active")
	}
}

func TestRegistrySnapshotResetsChangeFlag(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	started := time.Now().Add(-time.Minute)
	registry.add("pay_1", domain.MethodTransfer, domain.StatusPending, started, nil)

	sessions, changed := registry.Snapshot(time.Now())
	if changed {
		t.Fatal("no status change recorded yet")
	}
	if len(sessions) != 1 || sessions[0].Elapsed < time.Minute {
		t.Fatalf("sessions = %+v, want one with elapsed >= 1m", sessions)
	}

	registry.setLastStatus("pay_1", domain.StatusUnderReview)

	if _, changed := registry.Snapshot(time.Now()); !changed {
		t.Fatal("status change should be visible on the next read")
	}
	if _, changed := registry.Snapshot(time.Now()); changed {
		t.Fatal("change flag must reset after a read")
	}
}

func TestRegistryRemoveAll(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	cancelled := 0
	for _, id := range []string{"pay_1", "pay_2", "pay_3"} {
		registry.add(id, domain.MethodTransfer, domain.StatusPending, time.Now(), func() { cancelled++ })
	}

	registry.removeAll()

	if registry.len() != 0 {
		t.Fatalf("len = %d, want 0", registry.len())
	}
	if cancelled != 3 {
		t.Fatalf("cancelled = %d, want 3", cancelled)
	}
}
