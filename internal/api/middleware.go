package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// ClientIDHeader identifies the calling UI instance for rate limiting and logs.
const ClientIDHeader = "X-Client-ID"

func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client", r.Header.Get(ClientIDHeader),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}

type rateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// allow records a request for key and reports whether it is within the limit.
func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no requests after cutoff. Callers hold rl.mu.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for key, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.requests, key)
		}
	}
}

// clientKey identifies the caller: X-Client-ID when present, otherwise the
// remote host without its port.
func clientKey(r *http.Request) string {
	if id := r.Header.Get(ClientIDHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware allows requestsPerMinute per client, keyed by
// X-Client-ID or the remote host. A non-positive limit disables it.
func RateLimitMiddleware(requestsPerMinute int) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    requestsPerMinute,
		window:   time.Minute,
	}
	return func(next http.Handler) http.Handler {
		if requestsPerMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientKey(r), time.Now()) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
