package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const window = time.Minute

// RedisRateLimiter implements a sliding-window limiter on a Redis sorted
// set. Each request is a member scored by its nanosecond timestamp; members
// older than the window are trimmed before counting.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
}

// NewRedisRateLimiter creates a new Redis rate limiter instance
func NewRedisRateLimiter(client *redis.Client, requestsPerMin int) RateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  requestsPerMin,
	}
}

// Allow records the request and reports whether it fits the window
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	now := time.Now()
	redisKey := l.getKey(key)
	windowStart := now.Add(-window).UnixNano()
	nowNano := now.UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowNano), Member: nowNano})
	pipe.Expire(ctx, redisKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	return zcard.Val() < int64(l.limit), nil
}

// GetRemaining returns how many requests the key may still make this window
func (l *RedisRateLimiter) GetRemaining(ctx context.Context, key string) (int64, error) {
	redisKey := l.getKey(key)
	windowStart := time.Now().Add(-window).UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to get remaining: %w", err)
	}

	used := zcard.Val()
	remaining := int64(l.limit) - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the window for a key
func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.getKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

func (l *RedisRateLimiter) getKey(identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", identifier, window.String())
}
