package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int // 0 disables limiting
	BurstSize         int
}

// DefaultConfig returns the default rate limiter configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 30,
		BurstSize:         5,
	}
}

// Limiter paces requests. A nil or disabled Limiter never blocks.
type Limiter struct {
	bucket *TokenBucket

	total   atomic.Int64
	delayed atomic.Int64
}

// NewLimiter returns a limiter for cfg, or nil when cfg disables limiting.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	burst := float64(cfg.BurstSize)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{bucket: NewTokenBucket(burst, float64(cfg.RequestsPerMinute)/60.0)}
}

// Acquire waits for a request slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.total.Add(1)
	if l.bucket.TryConsume(1) {
		return nil
	}
	l.delayed.Add(1)
	if err := l.bucket.Wait(ctx, 1); err != nil {
		return fmt.Errorf("waiting for request slot: %w", err)
	}
	return nil
}

// Stats returns how many requests were seen and how many had to wait.
func (l *Limiter) Stats() (total, delayed int64) {
	if l == nil {
		return 0, 0
	}
	return l.total.Load(), l.delayed.Load()
}
