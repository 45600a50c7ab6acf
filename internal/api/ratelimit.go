// Per-client budget for POST /api/v1/run. Every accepted request may trigger
// a full rebuild of the planet, so each client gets a fixed number of runs
// per window; the window starts with the client's first run.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter hands out a fixed run budget per client and window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*runBudget
	limit   int
	window  time.Duration
	now     func() time.Time
}

type runBudget struct {
	used    int
	started time.Time
}

// NewRateLimiter allows limit runs per client in every window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*runBudget),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Take spends one run from client's budget. When the budget is exhausted it
// returns false and the time left until the window resets.
func (rl *RateLimiter) Take(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.forgetExpired(now)

	b, ok := rl.clients[client]
	if !ok {
		b = &runBudget{started: now}
		rl.clients[client] = b
	}
	if b.used >= rl.limit {
		return false, rl.window - now.Sub(b.started)
	}
	b.used++
	return true, 0
}

// forgetExpired drops budgets whose window has ended. Callers hold mu.
func (rl *RateLimiter) forgetExpired(now time.Time) {
	for client, b := range rl.clients {
		if now.Sub(b.started) >= rl.window {
			delete(rl.clients, client)
		}
	}
}

// retryAfterSeconds rounds a wait up to whole seconds for the Retry-After header.
func retryAfterSeconds(wait time.Duration) int {
	return int((wait + time.Second - 1) / time.Second)
}

// clientIP returns the caller address, preferring the first
// X-Forwarded-For hop for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware answers 429 with Retry-After once a client's run
// budget is spent.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.Take(clientIP(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			http.Error(w, "run budget exhausted, retry later", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
