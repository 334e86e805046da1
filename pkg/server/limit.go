package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrymomot/streamhub/pkg/logger"
)

const staleBucketAge = time.Hour

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// connectLimiter is a token bucket per client address. Buckets untouched for an
// hour are swept lazily.
type connectLimiter struct {
	capacity int
	refill   time.Duration
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newConnectLimiter(capacity int, refill time.Duration) *connectLimiter {
	if capacity <= 0 || refill <= 0 {
		return nil
	}
	return &connectLimiter{
		capacity: capacity,
		refill:   refill,
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

// allow consumes a token for key. When none is left it reports how long until
// the next refill.
func (l *connectLimiter) allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > staleBucketAge {
		for k, b := range l.buckets {
			if now.Sub(b.lastRefill) > staleBucketAge {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = b
	}

	if n := int(now.Sub(b.lastRefill) / l.refill); n > 0 {
		b.tokens = min(b.tokens+n, l.capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(n) * l.refill)
	}

	if b.tokens <= 0 {
		return false, b.lastRefill.Add(l.refill).Sub(now)
	}
	b.tokens--
	return true, 0
}

// limitConnections rejects streaming requests over the per-address budget with
// 429 and Retry-After.
func (h *Handler) limitConnections(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, h.cfg.TrustProxyHeaders)
		if ok, wait := h.limiter.allow(ip); !ok {
			h.logger.LogAttrs(r.Context(), slog.LevelWarn, "streaming connection rate limited",
				slog.String("client_ip", ip),
				logger.Duration(wait),
			)
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(wait.Round(time.Second).Seconds()))))
			writeError(w, http.StatusTooManyRequests, ErrTooManyConnections)
			return
		}
		next.ServeHTTP(w, r)
	})
}
