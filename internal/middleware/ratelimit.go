package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
)

const rateLimiterExpiry = 5 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per authenticated user, falling back to the
// client address for anonymous requests.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clock     clockwork.Clock
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per minute with a burst of the
// same size.
func NewRateLimiter(perMinute int, clock clockwork.Clock) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		clock:   clock,
		entries: make(map[string]*limiterEntry),
	}
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.lastSweep) > rateLimiterExpiry {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > rateLimiterExpiry {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := UserID(r.Context())
		if !ok {
			key, _, _ = net.SplitHostPort(r.RemoteAddr)
		}
		if !l.Allow(key) {
			appErrors.WriteJSON(w, appErrors.RateLimited("rate limit exceeded, try again in a minute"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
