package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/dedup"
	"github.com/fitgrid/settlement-tracker/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const defaultMarkerTTL = 24 * time.Hour

// markScript advances the notification marker only when the new status ranks
// strictly above the recorded one. Executed atomically so concurrent tracker
// instances cannot both win the same transition.
var markScript = goredis.NewScript(`
local rank = tonumber(ARGV[1])
local current = tonumber(redis.call("HGET", KEYS[1], "rank"))
if current and rank <= current then
  return 0
end
redis.call("HSET", KEYS[1], "rank", ARGV[1], "status", ARGV[2])
redis.call("EXPIRE", KEYS[1], ARGV[3])
return 1
`)

var _ dedup.Store = (*DedupStore)(nil)

// DedupStore is a Redis-backed notification dedup marker shared across
// tracker instances.
type DedupStore struct {
	client *goredis.Client
	ttl    time.Duration
	script *goredis.Script
}

func NewDedupStore(client *goredis.Client) (*DedupStore, error) {
	return newDedupStore(client, defaultMarkerTTL)
}

func newDedupStore(client *goredis.Client, ttl time.Duration) (*DedupStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultMarkerTTL
	}

	return &DedupStore{
		client: client,
		ttl:    ttl,
		script: markScript,
	}, nil
}

func (s *DedupStore) LastNotified(ctx context.Context, paymentID string) (domain.Status, bool, error) {
	if s == nil || s.client == nil {
		return "", false, fmt.Errorf("dedup store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value, err := s.client.HGet(ctx, markerKey(paymentID), "status").Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read notification marker: %w", err)
	}

	status, err := domain.ParseStatusFromString(value)
	if err != nil {
		return "", false, fmt.Errorf("corrupt notification marker for %q: %w", paymentID, err)
	}

	return status, true, nil
}

func (s *DedupStore) MarkNotified(ctx context.Context, paymentID string, status domain.Status) (bool, error) {
	if s == nil || s.client == nil || s.script == nil {
		return false, fmt.Errorf("dedup store is not initialized")
	}
	if strings.TrimSpace(paymentID) == "" {
		return false, fmt.Errorf("%w: payment id is required", domain.ErrValidation)
	}
	if !status.IsValid() {
		return false, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ttlSeconds := int64(s.ttl / time.Second)
	result, err := s.script.Run(ctx, s.client,
		[]string{markerKey(paymentID)},
		strconv.Itoa(status.Rank()), status.String(), ttlSeconds,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to advance notification marker: %w", err)
	}

	return result == 1, nil
}

func (s *DedupStore) Forget(ctx context.Context, paymentID string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("dedup store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.client.Del(ctx, markerKey(paymentID)).Err(); err != nil {
		return fmt.Errorf("failed to delete notification marker: %w", err)
	}
	return nil
}

func markerKey(paymentID string) string {
	return "tracker:notified:" + strings.TrimSpace(paymentID)
}
