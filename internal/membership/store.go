package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitgrid/settlement-tracker/internal/authority"
	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"go.uber.org/zap"
)

// Store is the membership projection port. The tracker only ever calls
// Invalidate, exactly once per settled payment; reads go through Get.
type Store interface {
	Get(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error)
	Invalidate(ctx context.Context, memberID string) error
	Refetch(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error)
}

// CachingStore caches authority membership records in Postgres and refetches
// them on demand after invalidation.
type CachingStore struct {
	authority authority.StatusAuthority
	snapshots repository.MembershipRepository
	logger    *zap.Logger
}

func NewCachingStore(
	statusAuthority authority.StatusAuthority,
	snapshots repository.MembershipRepository,
	logger *zap.Logger,
) (*CachingStore, error) {
	if statusAuthority == nil {
		return nil, fmt.Errorf("status authority is required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("membership repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachingStore{
		authority: statusAuthority,
		snapshots: snapshots,
		logger:    logger,
	}, nil
}

var _ Store = (*CachingStore)(nil)

func (s *CachingStore) Get(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
	trimmedID := strings.TrimSpace(memberID)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}

	snapshot, err := s.snapshots.Get(ctx, trimmedID)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return s.Refetch(ctx, trimmedID)
}

func (s *CachingStore) Invalidate(ctx context.Context, memberID string) error {
	trimmedID := strings.TrimSpace(memberID)
	if trimmedID == "" {
		return fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}

	if err := s.snapshots.Delete(ctx, trimmedID); err != nil {
		return fmt.Errorf("failed to invalidate membership snapshot: %w", err)
	}

	s.logger.Info("membership snapshot invalidated", zap.String("memberId", trimmedID))
	return nil
}

func (s *CachingStore) Refetch(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
	trimmedID := strings.TrimSpace(memberID)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}

	snapshot, err := s.authority.GetMembership(ctx, trimmedID)
	if err != nil {
		return nil, fmt.Errorf("failed to refetch membership: %w", err)
	}

	if err := s.snapshots.Put(ctx, snapshot); err != nil {
		// Cache write failure is not fatal; the snapshot is still usable.
		s.logger.Warn("failed to cache membership snapshot",
			zap.String("memberId", trimmedID),
			zap.Error(err),
		)
	}

	return snapshot, nil
}
