package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/wizelai/insight-engine/internal/models"
)

const rateLimitWindow = time.Minute

// clientWindow tracks one client's request times inside the sliding window.
type clientWindow struct {
	mu       sync.Mutex
	requests []time.Time
	limit    int
}

// allow records the request if the client is under its limit. When the limit
// is hit it returns how long until the oldest tracked request leaves the
// window, which is the soonest a retry can succeed.
func (cw *clientWindow) allow(now time.Time) (remaining int, retryAfter time.Duration, ok bool) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cutoff := now.Add(-rateLimitWindow)
	live := cw.requests[:0]
	for _, t := range cw.requests {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	cw.requests = live

	if len(cw.requests) >= cw.limit {
		return 0, cw.requests[0].Sub(cutoff), false
	}
	cw.requests = append(cw.requests, now)
	return cw.limit - len(cw.requests), 0, true
}

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
}

func (rl *rateLimiter) window(key string) *clientWindow {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cw, ok := rl.clients[key]
	if !ok {
		cw = &clientWindow{limit: rl.limit}
		rl.clients[key] = cw
	}
	return cw
}

// dropIdle forgets clients with no request in the current window.
func (rl *rateLimiter) dropIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-rateLimitWindow)
	for key, cw := range rl.clients {
		cw.mu.Lock()
		if len(cw.requests) == 0 || cw.requests[len(cw.requests)-1].Before(cutoff) {
			delete(rl.clients, key)
		}
		cw.mu.Unlock()
	}
}

// RateLimit enforces a per-client sliding-window limit. Clients are keyed by
// API key when present, remote address otherwise.
func RateLimit(limitPerMinute int) func(http.Handler) http.Handler {
	rl := &rateLimiter{clients: make(map[string]*clientWindow), limit: limitPerMinute}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rl.dropIdle()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.RemoteAddr
			}

			remaining, retryAfter, ok := rl.window(key).allow(time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limitPerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
