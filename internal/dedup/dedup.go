package dedup

import (
	"context"

	"github.com/fitgrid/settlement-tracker/internal/domain"
)

// Store guarantees at most one notification per (paymentID, status) pair.
//
// MarkNotified records the status as notified and reports whether it advanced
// the marker. The marker only moves forward along the status order; calling it
// again with an equal or earlier status returns false. Callers mark first and
// emit best-effort afterwards, so a failed emit is never retried into a
// duplicate; the authoritative state is still visible on the next read.
type Store interface {
	LastNotified(ctx context.Context, paymentID string) (domain.Status, bool, error)
	MarkNotified(ctx context.Context, paymentID string, status domain.Status) (bool, error)
	Forget(ctx context.Context, paymentID string) error
}
