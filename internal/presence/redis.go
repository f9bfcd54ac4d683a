package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker shares presence across API instances: one key per
// principal with the presence window as TTL. Both operations are
// best-effort; a redis hiccup degrades to "offline", which only means
// an extra offline notification.
type RedisTracker struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisTracker(rdb *redis.Client, window time.Duration) *RedisTracker {
	if window <= 0 {
		window = 2 * time.Minute
	}
	return &RedisTracker{rdb: rdb, window: window}
}

func presenceKey(principalID string) string { return "presence:" + principalID }

func (t *RedisTracker) Touch(ctx context.Context, principalID string) {
	if principalID == "" {
		return
	}
	_ = t.rdb.Set(ctx, presenceKey(principalID), "1", t.window).Err()
}

func (t *RedisTracker) Online(ctx context.Context, principalID string) bool {
	n, err := t.rdb.Exists(ctx, presenceKey(principalID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
