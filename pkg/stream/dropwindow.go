package stream

import (
	"sync"
	"time"
)

// dropWindow is a token bucket holding threshold tokens that refills
// continuously at threshold per window, so the budget rolls with time instead
// of resetting at fixed boundaries. Every dropped delivery consumes a token; an
// empty bucket marks the connection as a slow consumer.
type dropWindow struct {
	mu       sync.Mutex
	capacity float64
	rate     float64 // tokens per second
	tokens   float64
	last     time.Time
}

// newDropWindow returns nil when threshold is not positive, which disables the check.
func newDropWindow(threshold int, window time.Duration, now time.Time) *dropWindow {
	if threshold <= 0 || window <= 0 {
		return nil
	}
	return &dropWindow{
		capacity: float64(threshold),
		rate:     float64(threshold) / window.Seconds(),
		tokens:   float64(threshold),
		last:     now,
	}
}

// record consumes one token and reports whether the threshold is reached.
func (w *dropWindow) record(now time.Time) bool {
	if w == nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if elapsed := now.Sub(w.last); elapsed > 0 {
		w.tokens = min(w.capacity, w.tokens+elapsed.Seconds()*w.rate)
		w.last = now
	}

	w.tokens--
	return w.tokens <= 0
}
