package service

import "time"

// SetNow replaces the limiter's clock.
func (tb *TokenBucket) SetNow(now func() time.Time) { tb.now = now }

// Sweep exposes the idle-bucket sweep.
func (tb *TokenBucket) Sweep(ttl time.Duration) int { return tb.sweep(ttl) }
