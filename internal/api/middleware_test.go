package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitMiddleware_AllowsWithinLimit(t *testing.T) {
	handler := RateLimitMiddleware(5)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(ClientIDHeader, "client-a")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	handler := RateLimitMiddleware(3)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(ClientIDHeader, "client-a")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	// 4th request should be rate-limited
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(ClientIDHeader, "client-a")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_UsesClientIDAsKey(t *testing.T) {
	handler := RateLimitMiddleware(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(ClientIDHeader, "client-a")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(ClientIDHeader, "client-b")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("client-b should not be rate-limited, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(ClientIDHeader, "client-a")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("client-a should be rate-limited, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_KeysOnHostWithoutPort(t *testing.T) {
	handler := RateLimitMiddleware(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var codes []int
	for _, addr := range []string{"10.0.0.5:40001", "10.0.0.5:40002", "10.0.0.5:40003"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected [200 429 429] for one host on new ports, got %v", codes)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.6:40001"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("another host should not be rate-limited, got %d", w.Code)
	}
}

func TestRateLimiter_PrunesIdleKeys(t *testing.T) {
	rl := &rateLimiter{requests: make(map[string][]time.Time), limit: 5, window: time.Minute}
	start := time.Now()

	for _, key := range []string{"a", "b", "c"} {
		rl.allow(key, start)
	}
	if len(rl.requests) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(rl.requests))
	}

	rl.allow("d", start.Add(2*time.Minute))
	if len(rl.requests) != 1 {
		t.Errorf("expected idle keys to be pruned, got %d keys", len(rl.requests))
	}
	if _, ok := rl.requests["d"]; !ok {
		t.Error("expected the active key to remain")
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := RateLimitMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	handler := AdminAuthMiddleware("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 with token, got %d", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	called := false
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(ClientIDHeader, "test-client")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("inner handler was not called")
	}
	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", w.Code)
	}
}
