package client

import "time"

// Throttle rate-limits outbound pose updates from a moving local avatar.
// Edge updates at movement start and stop bypass the window via Force so
// remote observers always see both boundaries of a move.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle with the given minimum interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether a pose update may be emitted now, consuming the
// window when it returns true.
func (t *Throttle) Allow(now time.Time) bool {
	if t.last.IsZero() || now.Sub(t.last) >= t.interval {
		t.last = now
		return true
	}
	return false
}

// Force records an out-of-band emission, resetting the window.
func (t *Throttle) Force(now time.Time) {
	t.last = now
}
