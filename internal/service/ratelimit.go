package service

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is an in-memory per-key rate limiter using the token bucket algorithm.
// It is safe for concurrent use. Idle buckets are dropped by Run.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64 // maximum tokens
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a rate limiter that allows up to capacity tokens per key,
// refilling at the given rate (tokens per second).
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	return &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      time.Now,
	}
}

// PerMinute returns a limiter allowing n requests per minute per key, with
// bursts of up to n.
func PerMinute(n int) *TokenBucket {
	return NewTokenBucket(float64(n)/60, float64(n))
}

// Allow reports whether the given key may proceed. Each allowed call consumes
// one token. When denied, retryAfter is how long until a token is available;
// it is zero if the bucket never refills.
func (tb *TokenBucket) Allow(key string) (ok bool, retryAfter time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, found := tb.buckets[key]
	if !found {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if tb.rate <= 0 {
		return false, 0
	}
	wait := (1 - b.tokens) / tb.rate
	return false, time.Duration(wait * float64(time.Second))
}

// Run removes buckets idle for longer than ttl every interval until ctx is done.
func (tb *TokenBucket) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tb.sweep(ttl)
		}
	}
}

func (tb *TokenBucket) sweep(ttl time.Duration) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	cutoff := tb.now().Add(-ttl)
	removed := 0
	for key, b := range tb.buckets {
		if b.last.Before(cutoff) {
			delete(tb.buckets, key)
			removed++
		}
	}
	return removed
}
