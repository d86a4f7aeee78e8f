package middleware

import (
	"net/http"
	"sync"
	"time"
)

// Throttle caps request rates per key with a refill-on-demand budget.
// The carrier retries webhook deliveries aggressively on slow replies, so
// the budget must absorb short bursts without letting a retry storm reach
// the dialogue engine.
type Throttle struct {
	mu     sync.Mutex
	visits map[string]*visit

	perSecond float64
	burst     float64

	stopOnce sync.Once
	done     chan struct{}
}

type visit struct {
	budget float64
	seen   time.Time
}

// NewThrottle creates a throttle allowing perSecond requests with the given
// burst per key, and starts a janitor that drops idle keys. Call Stop when
// the throttle is no longer needed.
func NewThrottle(perSecond float64, burst int) *Throttle {
	t := &Throttle{
		visits:    make(map[string]*visit),
		perSecond: perSecond,
		burst:     float64(burst),
		done:      make(chan struct{}),
	}
	go t.janitor()
	return t
}

// Allow reports whether a request under key is within budget.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	v, ok := t.visits[key]
	if !ok {
		t.visits[key] = &visit{budget: t.burst - 1, seen: now}
		return true
	}

	v.budget += now.Sub(v.seen).Seconds() * t.perSecond
	if v.budget > t.burst {
		v.budget = t.burst
	}
	v.seen = now

	if v.budget < 1 {
		return false
	}
	v.budget--
	return true
}

// Stop ends the janitor goroutine.
func (t *Throttle) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

func (t *Throttle) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			t.mu.Lock()
			for key, v := range t.visits {
				if v.seen.Before(cutoff) {
					delete(t.visits, key)
				}
			}
			t.mu.Unlock()
		}
	}
}

// callerKey identifies the request source. The carrier fronts every call
// from its own egress range, so the X-Real-Ip header set by chi's RealIP
// middleware is preferred over the socket address.
func callerKey(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// RateLimit rejects requests over the per-source budget with 429.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	return RateLimitWithKey(perSecond, burst, callerKey)
}

// RateLimitWithKey is RateLimit with a custom key extractor, for routes
// throttled by something other than source address.
func RateLimitWithKey(perSecond float64, burst int, key func(*http.Request) string) func(http.Handler) http.Handler {
	throttle := NewThrottle(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !throttle.Allow(key(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
