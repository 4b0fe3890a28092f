package dedup

import (
	"context"
	"fmt"
	"sync"

	"github.com/fitgrid/settlement-tracker/internal/domain"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local dedup store. It is the default for a single
// tracker instance; deployments running multiple instances use the Redis store.
type MemoryStore struct {
	mu       sync.Mutex
	notified map[string]domain.Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notified: make(map[string]domain.Status),
	}
}

func (s *MemoryStore) LastNotified(ctx context.Context, paymentID string) (domain.Status, bool, error) {
	if s == nil {
		return "", false, fmt.Errorf("dedup store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.notified[paymentID]
	return status, ok, nil
}

func (s *MemoryStore) MarkNotified(ctx context.Context, paymentID string, status domain.Status) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("dedup store is not initialized")
	}
	if !status.IsValid() {
		return false, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.notified[paymentID]; ok && status.Rank() <= previous.Rank() {
		return false, nil
	}

	s.notified[paymentID] = status
	return true, nil
}

func (s *MemoryStore) Forget(ctx context.Context, paymentID string) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notified, paymentID)
	return nil
}
