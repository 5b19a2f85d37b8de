package service

import "time"

// Clock returns the current time. Its location decides calendar days for
// due dates and daily study totals.
type Clock func() time.Time

// NewClock returns a Clock reading wall time in loc.
func NewClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}
