package fetcher

import (
	"sync"
	"time"
)

const (
	DefaultBackoffFloor  = 1 * time.Minute
	DefaultBackoffMax    = 5 * time.Minute
	DefaultBackoffFactor = 1.5
)

// Backoff widens multiplicatively on every rate-limit and snaps back to the floor on success.
type Backoff struct {
	floor  time.Duration
	max    time.Duration
	factor float64

	mu      sync.Mutex
	current time.Duration
	hits    int
}

func NewBackoff(floor, max time.Duration, factor float64) *Backoff {
	if floor <= 0 {
		floor = DefaultBackoffFloor
	}
	if max < floor {
		max = DefaultBackoffMax
		if max < floor {
			max = floor
		}
	}
	if factor <= 1 {
		factor = DefaultBackoffFactor
	}
	return &Backoff{floor: floor, max: max, factor: factor, current: floor}
}

func DefaultBackoff() *Backoff {
	return NewBackoff(DefaultBackoffFloor, DefaultBackoffMax, DefaultBackoffFactor)
}

// Widen records one more rate-limited answer and returns the new delay.
func (b *Backoff) Widen() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := time.Duration(float64(b.current) * b.factor)
	if next > b.max {
		next = b.max
	}
	b.current = next
	b.hits++
	return next
}

func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.floor
	b.hits = 0
}

func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Engaged is true while the last upstream answer was a rate-limit.
func (b *Backoff) Engaged() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits > 0
}
