package ticketnumber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore increments counters with INCRBY. Date-scoped keys carry a
// two-day TTL, long enough to cover clock skew across instances while
// keeping stale daily counters from piling up.
type RedisStore struct {
	client   *redis.Client
	systemID string
	clock    func() time.Time
}

// NewRedisStore creates a redis-backed counter store.
func NewRedisStore(client *redis.Client, systemID string) *RedisStore {
	return &RedisStore{client: client, systemID: systemID, clock: time.Now}
}

// Add implements CounterStore.
func (s *RedisStore) Add(ctx context.Context, dateScoped bool, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errors.New("counter offset must be at least 1")
	}
	key := "ticketnumber:" + s.systemID
	if dateScoped {
		now := s.clock().UTC()
		key = fmt.Sprintf("%s:%04d%02d%02d", key, now.Year(), int(now.Month()), now.Day())
	}
	c, err := s.client.IncrBy(ctx, key, offset).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment ticket counter: %w", err)
	}
	if dateScoped && c == offset {
		s.client.Expire(ctx, key, 48*time.Hour)
	}
	return c, nil
}
