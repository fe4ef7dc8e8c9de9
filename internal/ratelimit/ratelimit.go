// Package ratelimit caps how often a client may submit uploads within a fixed
// time window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Counter abstracts the Redis operations used by the limiter to make testing easier.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// RedisCounter is a concrete implementation backed by go-redis.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter constructs a new Redis-backed counter adapter.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr increments key and returns its new value.
func (c *RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// Expire sets a time to live on key.
func (c *RedisCounter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.client.Expire(ctx, key, expiration).Err()
}

// Limiter is a fixed-window counter per client key. Counter errors fail open.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewLimiter returns a limiter allowing limit hits per window.
func NewLimiter(counter Counter, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		logger:  logger.Named("ratelimit"),
		now:     time.Now,
	}
}

// Allow records one hit for client and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, client string) bool {
	windowStart := l.now().Truncate(l.window).Unix()
	key := fmt.Sprintf("ratelimit:upload:%s:%d", client, windowStart)

	count, err := l.counter.Incr(ctx, key)
	if err != nil {
		l.logger.Warn("rate limit counter unavailable, allowing request", zap.Error(err), zap.String("client", client))
		return true
	}
	if count == 1 {
		if err := l.counter.Expire(ctx, key, l.window); err != nil {
			l.logger.Warn("failed to set rate limit window expiry", zap.Error(err), zap.String("key", key))
		}
	}
	return count <= l.limit
}
