package middleware

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"media-backend/internal/shared/telemetry"
	"media-backend/internal/shared/util"
)

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter is a fixed-window Limiter shared across instances. Each window
// admits rule.Burst requests and lasts Burst/Rate seconds. Redis errors fail open.
type RedisLimiter struct {
	client redisCounter
	prefix string
}

// NewRedisLimiter builds a RedisLimiter. Keys are namespaced by prefix.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return newRedisLimiter(client, prefix)
}

func newRedisLimiter(client redisCounter, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	window := time.Duration(math.Round(float64(rule.Burst)/rule.Rate)) * time.Second
	if window < time.Second {
		window = time.Second
	}
	redisKey := l.prefix + ":" + util.HashKey(key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		telemetry.Warn("ratelimit.redis.failed", map[string]any{"error": err})
		return true, 0
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			telemetry.Warn("ratelimit.redis.expire_failed", map[string]any{"error": err})
		}
	}
	if count <= int64(rule.Burst) {
		return true, 0
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return false, ttl
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*RateLimiter)(nil)
)
