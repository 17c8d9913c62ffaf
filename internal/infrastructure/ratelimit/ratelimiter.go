package ratelimit

import "context"

// RateLimiter limits how often a caller identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	GetRemaining(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}
