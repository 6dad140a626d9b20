package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thaijunny/fashion-be/internal/usecase"
)

// RedisIdempotencyStore keeps short-lived checkout locks and the
// idempotency-key to order-id mapping. Locks expire after lockTTL so a
// crashed request cannot block a user forever.
type RedisIdempotencyStore struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisIdempotencyStore(rdb redis.UniversalClient, ttl, lockTTL time.Duration) *RedisIdempotencyStore {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL}
}

func lockKey(scope, key string) string { return "idemp:lock:" + scope + ":" + key }
func mapKey(scope, key string) string  { return "idemp:map:" + scope + ":" + key }

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.lockTTL).Result()
}

func (s *RedisIdempotencyStore) Unlock(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, lockKey(scope, key)).Err()
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	return s.rdb.Set(ctx, mapKey(scope, key), value, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, mapKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

var _ usecase.IdempotencyStore = (*RedisIdempotencyStore)(nil)
