package application

import (
	"time"

	"github.com/bnema/annoirc/internal/ports"
)

// Backoff computes reconnect delays from the time since the previous attempt:
// quick repeated failures double the wait up to max, a long quiet spell starts
// over at min.
type Backoff struct {
	min   time.Duration
	max   time.Duration
	last  time.Time
	clock ports.Clock
}

func NewBackoff(min, max time.Duration, clock ports.Clock) *Backoff {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if max < min {
		max = min
	}
	return &Backoff{min: min, max: max, clock: clock}
}

// Next records an attempt and returns how long to wait before making it.
// wait is false for the first attempt and for the first one after Success.
func (b *Backoff) Next() (delay time.Duration, wait bool) {
	now := b.clock.Now()
	last := b.last
	b.last = now

	if last.IsZero() {
		return 0, false
	}

	since := now.Sub(last)
	if since > 2*b.max {
		delay = b.min
	} else {
		delay = min(max(since, b.min/2), b.max/2) * 2
	}

	return delay.Truncate(time.Second), true
}

// Success clears the attempt history after a completed handshake.
func (b *Backoff) Success() {
	b.last = time.Time{}
}

// SetBounds adopts new limits without forgetting the last attempt.
func (b *Backoff) SetBounds(min, max time.Duration) {
	if max < min {
		max = min
	}
	b.min = min
	b.max = max
}
