package ai

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket for pacing API calls
type RateLimiter struct {
	tokens      int
	maxTokens   int
	refillRate  time.Duration
	lastRefill  time.Time
	tokensMutex sync.Mutex
}

// NewRateLimiter creates a limiter holding maxTokens that regains one token
// every refillRate
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// PerMinute returns a limiter allowing n requests per minute with a burst of n.
// n <= 0 disables limiting and returns nil.
func PerMinute(n int) *RateLimiter {
	if n <= 0 {
		return nil
	}
	return NewRateLimiter(n, time.Minute/time.Duration(n))
}

// GetToken tries to take a token from the bucket, refilling if necessary
func (r *RateLimiter) GetToken() bool {
	r.tokensMutex.Lock()
	defer r.tokensMutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed / r.refillRate)

	if tokensToAdd > 0 {
		r.tokens = min(r.maxTokens, r.tokens+tokensToAdd)
		r.lastRefill = r.lastRefill.Add(time.Duration(tokensToAdd) * r.refillRate)
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done. A nil limiter never
// blocks.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	for !r.GetToken() {
		wait := r.refillRate / 4
		if wait <= 0 {
			wait = time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
