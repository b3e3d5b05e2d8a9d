package market

import (
	"sync"
	"time"
)

// Backoff spaces out refreshes of a market after consecutive failures
//
// The n-th consecutive failure waits interval * 2^(n-1), capped at max. A successful refresh or
// a pair switch starts over from the refresh interval.
type Backoff struct {
	mu       sync.Mutex
	interval time.Duration
	max      time.Duration
	failures int
}

// NewBackoff creates a backoff for a refresh interval
// A maxDelay below the interval defaults to 32 intervals.
func NewBackoff(interval, maxDelay time.Duration) *Backoff {
	if interval <= 0 {
		interval = time.Second
	}
	if maxDelay < interval {
		maxDelay = interval * 32
	}
	return &Backoff{interval: interval, max: maxDelay}
}

// Failed records a failed refresh and returns the delay before the retry
func (b *Backoff) Failed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	delay := b.interval
	for i := 1; i < b.failures && delay < b.max; i++ {
		delay *= 2
	}
	return min(delay, b.max)
}

// Failures returns the number of consecutive failed refreshes
func (b *Backoff) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset forgets earlier failures
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}
