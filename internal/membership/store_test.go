package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"go.uber.org/zap"
)

type fakeAuthority struct {
	getMembershipFn func(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error)
}

func (f *fakeAuthority) GetPaymentStatus(ctx context.Context, paymentID string) (*domain.TrackedPayment, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeAuthority) ListPendingPayments(ctx context.Context) ([]domain.TrackedPayment, error) {
	return nil, nil
}

func (f *fakeAuthority) GetMembership(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
	if f.getMembershipFn != nil {
		return f.getMembershipFn(ctx, memberID)
	}
	return nil, domain.ErrNotFound
}

type fakeMembershipRepo struct {
	getFn    func(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error)
	putFn    func(ctx context.Context, snapshot *domain.MembershipSnapshot) error
	deleteFn func(ctx context.Context, memberID string) error
}

func (f *fakeMembershipRepo) Get(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
	if f.getFn != nil {
		return f.getFn(ctx, memberID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMembershipRepo) Put(ctx context.Context, snapshot *domain.MembershipSnapshot) error {
	if f.putFn != nil {
		return f.putFn(ctx, snapshot)
	}
	return nil
}

func (f *fakeMembershipRepo) Delete(ctx context.Context, memberID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, memberID)
	}
	return nil
}

func TestCachingStoreGetHitsCache(t *testing.T) {
	t.Parallel()

	cached := &domain.MembershipSnapshot{
		MemberID:  "mem_1",
		Status:    domain.MembershipActive,
		FetchedAt: time.Now().UTC(),
	}
	repo := &fakeMembershipRepo{
		getFn: func(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
			return cached, nil
		},
	}
	authorityCalls := 0
	auth := &fakeAuthority{
		getMembershipFn: func(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
			authorityCalls++
			return nil, errors.New("should not be called")
		},
	}

	store, err := NewCachingStore(auth, repo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCachingStore() error = %v", err)
	}

	snapshot, err := store.Get(context.Background(), "mem_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snapshot.Status != domain.MembershipActive {
		t.Fatalf("status = %s, want ACTIVE", snapshot.Status)
	}
	if authorityCalls != 0 {
		t.Fatalf("authority calls = %d, want 0", authorityCalls)
	}
}

func TestCachingStoreGetRefetchesOnMiss(t *testing.T) {
	t.Parallel()

	var put *domain.MembershipSnapshot
	repo := &fakeMembershipRepo{
		putFn: func(ctx context.Context, snapshot *domain.MembershipSnapshot) error {
			put = snapshot
			return nil
		},
	}
	auth := &fakeAuthority{
		getMembershipFn: func(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
			return &domain.MembershipSnapshot{
				MemberID:  memberID,
				Status:    domain.MembershipActive,
				FetchedAt: time.Now().UTC(),
			}, nil
		},
	}

	store, err := NewCachingStore(auth, repo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCachingStore() error = %v", err)
	}

	snapshot, err := store.Get(context.Background(), "mem_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snapshot.MemberID != "mem_1" {
		t.Fatalf("memberId = %s, want mem_1", snapshot.MemberID)
	}
	if put == nil {
		t.Fatal("refetched snapshot should be cached")
	}
}

func TestCachingStoreInvalidateDeletesSnapshot(t *testing.T) {
	t.Parallel()

	deleted := ""
	repo := &fakeMembershipRepo{
		deleteFn: func(ctx context.Context, memberID string) error {
			deleted = memberID
			return nil
		},
	}

	store, err := NewCachingStore(&fakeAuthority{}, repo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCachingStore() error = %v", err)
	}

	if err := store.Invalidate(context.Background(), "mem_1"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if deleted != "mem_1" {
		t.Fatalf("deleted = %q, want mem_1", deleted)
	}
}

func TestCachingStoreRefetchSurvivesCacheWriteFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeMembershipRepo{
		putFn: func(ctx context.Context, snapshot *domain.MembershipSnapshot) error {
			return errors.New("db unavailable")
		},
	}
	auth := &fakeAuthority{
		getMembershipFn: func(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
			return &domain.MembershipSnapshot{
				MemberID:  memberID,
				Status:    domain.MembershipActive,
				FetchedAt: time.Now().UTC(),
			}, nil
		},
	}

	store, err := NewCachingStore(auth, repo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCachingStore() error = %v", err)
	}

	snapshot, err := store.Refetch(context.Background(), "mem_1")
	if err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}
	if snapshot == nil {
		t.Fatal("snapshot should be returned despite cache failure")
	}
}

func TestCachingStoreValidation(t *testing.T) {
	t.Parallel()

	store, err := NewCachingStore(&fakeAuthority{}, &fakeMembershipRepo{}, nil)
	if err != nil {
		t.Fatalf("NewCachingStore() error = %v", err)
	}

	if _, err := store.Get(context.Background(), " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Get() error = %v, want ErrValidation", err)
	}
	if err := store.Invalidate(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Invalidate() error = %v, want ErrValidation", err)
	}
}
