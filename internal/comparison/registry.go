package comparison

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Versus/internal/scoring"
)

// Registry holds live sessions keyed by UUID and evicts idle ones.
type Registry struct {
	resolver ConfigResolver
	scorer   *scoring.Scorer
	idleTTL  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRegistry creates a Registry. A non-positive idleTTL disables eviction.
func NewRegistry(r ConfigResolver, sc *scoring.Scorer, idleTTL time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		resolver: r,
		scorer:   sc,
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

func (r *Registry) Create() *Session {
	id := uuid.New().String()
	s := newSession(id, r.resolver, r.scorer, r.logger, r.now)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Info("session created", "session", id)
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict removes sessions idle for at least the TTL and returns how many
// were removed.
func (r *Registry) Evict() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for id, s := range r.sessions {
		if !s.LastActive().After(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		r.logger.Info("evicted idle sessions", "count", n, "remaining", len(r.sessions))
	}
	return n
}

// Start runs periodic eviction until ctx is done or Stop is called.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}
	r.wg.Add(1)
	go r.evictionLoop(ctx, interval)
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Registry) evictionLoop(ctx context.Context, interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}
