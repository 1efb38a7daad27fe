// Package ratelimit paces outgoing AI requests with a token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// minWait keeps Wait from spinning when the deficit is tiny.
const minWait = 10 * time.Millisecond

// TokenBucket implements a token bucket rate limiter.
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket holding at most maxTokens and gaining
// refillRate tokens per second.
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	b := &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		now:        time.Now,
	}
	b.lastRefill = b.now()
	return b
}

func (b *TokenBucket) refill() {
	now := b.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// TryConsume takes n tokens if they are available.
func (b *TokenBucket) TryConsume(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// Wait blocks until n tokens are taken or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context, n float64) error {
	for {
		wait, ok := b.reserve(n)
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// reserve takes n tokens, or reports how long until they could be available.
func (b *TokenBucket) reserve(n float64) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return 0, true
	}
	if b.refillRate <= 0 {
		return time.Second, false
	}
	wait := time.Duration((n - b.tokens) / b.refillRate * float64(time.Second))
	return max(wait, minWait), false
}

// Available returns the current number of tokens.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// Return puts tokens back, e.g. for a request that never left.
func (b *TokenBucket) Return(n float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(b.tokens+n, b.maxTokens)
}
