package comparison

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/metrics"
	"github.com/MikeSquared-Agency/Versus/internal/scoring"
)

var (
	// ErrNotEnoughProducts is returned when comparing fewer than MinProducts.
	ErrNotEnoughProducts = errors.New("select at least two products to compare")

	// ErrSuperseded is returned when the active category changed while a
	// config fetch was in flight. The fetched config is discarded.
	ErrSuperseded = errors.New("active category changed during config fetch")
)

// ConfigResolver supplies category configs.
type ConfigResolver interface {
	ResolveConfig(ctx context.Context, categoryID string) (*catalog.CategoryConfig, error)
}

// Session is one user's comparison state. All methods are safe for
// concurrent use.
type Session struct {
	ID string

	resolver ConfigResolver
	scorer   *scoring.Scorer
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	set        Set
	generation uint64
	config     *catalog.CategoryConfig
	overrides  map[string]string
	useCustom  bool
	weights    scoring.Weights
	last       *scoring.Comparison
	lastActive time.Time
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID             string                  `json:"id"`
	Category       string                  `json:"category,omitempty"`
	Products       []catalog.Product       `json:"products"`
	Config         *catalog.CategoryConfig `json:"config,omitempty"`
	CustomWeights  bool                    `json:"custom_weights"`
	Overrides      map[string]string       `json:"overrides,omitempty"`
	Weights        scoring.Weights         `json:"weights,omitempty"`
	LastComparison *scoring.Comparison     `json:"last_comparison,omitempty"`
	LastActive     time.Time               `json:"last_active"`
}

func newSession(id string, r ConfigResolver, sc *scoring.Scorer, logger *slog.Logger, now func() time.Time) *Session {
	return &Session{
		ID:         id,
		resolver:   r,
		scorer:     sc,
		logger:     logger.With("session", id),
		now:        now,
		lastActive: now(),
	}
}

// Add puts p into the set. Adding the first product makes its category active.
func (s *Session) Add(p catalog.Product) (AddOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	before := s.set.Category()
	outcome, err := s.set.Add(p)
	if err != nil {
		return outcome, fmt.Errorf("%w: set holds %s, product %s is %s",
			err, before, p.ID, p.Category)
	}
	if outcome == Added {
		s.last = nil
		if s.set.Category() != before {
			s.switchCategory()
		}
	}
	return outcome, nil
}

// Remove drops a product. Removing the last product deactivates its category.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !s.set.Remove(id) {
		return false
	}
	s.last = nil
	if s.set.Len() == 0 {
		s.switchCategory()
	}
	return true
}

// Clear empties the set and drops everything tied to the active category.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.set.Clear()
	s.last = nil
	s.switchCategory()
}

// Config returns the current config for the active category.
func (s *Session) Config(ctx context.Context) (*catalog.CategoryConfig, error) {
	cfg, _, err := s.loadConfig(ctx)
	return cfg, err
}

// SetOverrides records the user's weight draft. When enabled, the draft is
// validated immediately; a draft that sums to zero is kept for editing but
// the previously resolved weights stay in effect.
func (s *Session) SetOverrides(enabled bool, raw map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	draft := make(map[string]string, len(raw))
	for k, v := range raw {
		draft[k] = v
	}
	s.overrides = draft
	s.useCustom = enabled

	if !enabled {
		s.weights = nil
		return nil
	}
	w, err := scoring.ResolveWeights(s.config, draft)
	if err != nil {
		return err
	}
	s.weights = w
	return nil
}

// Compare scores the current set with the active weights.
func (s *Session) Compare(ctx context.Context) (*scoring.Comparison, error) {
	s.mu.Lock()
	n := s.set.Len()
	s.touch()
	s.mu.Unlock()
	if n < MinProducts {
		metrics.Comparisons.WithLabelValues("not_enough_products").Inc()
		return nil, ErrNotEnoughProducts
	}

	cfg, gen, err := s.loadConfig(ctx)
	if err != nil {
		metrics.Comparisons.WithLabelValues("config_error").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		metrics.Comparisons.WithLabelValues("superseded").Inc()
		return nil, ErrSuperseded
	}
	products := s.set.Products()
	if len(products) < MinProducts {
		metrics.Comparisons.WithLabelValues("not_enough_products").Inc()
		return nil, ErrNotEnoughProducts
	}

	var overrides map[string]string
	if s.useCustom {
		overrides = s.overrides
	}
	weights, err := scoring.ResolveWeights(cfg, overrides)
	if err != nil {
		metrics.Comparisons.WithLabelValues("invalid_weights").Inc()
		return nil, err
	}

	cmp := s.scorer.Compare(products, cfg, weights)
	s.weights = weights
	s.last = cmp
	metrics.Comparisons.WithLabelValues("ok").Inc()
	s.logger.Info("comparison complete",
		"category", cfg.ID,
		"products", len(products),
		"custom_weights", s.useCustom,
	)
	return cmp, nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.ID,
		Category:       s.set.Category(),
		Products:       s.set.Products(),
		Config:         s.config,
		CustomWeights:  s.useCustom,
		Weights:        s.weights.Clone(),
		LastComparison: s.last,
		LastActive:     s.lastActive,
	}
	if len(s.overrides) > 0 {
		snap.Overrides = make(map[string]string, len(s.overrides))
		for k, v := range s.overrides {
			snap.Overrides[k] = v
		}
	}
	return snap
}

// LastActive returns the time of the most recent call on the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// loadConfig resolves the active category's config on every call, so the
// resolver's freshness window and invalidations apply to live sessions. The
// lock is not held during the fetch; a result that arrives after the category
// changed is discarded. s.config only records the last config for snapshots.
func (s *Session) loadConfig(ctx context.Context) (*catalog.CategoryConfig, uint64, error) {
	s.mu.Lock()
	category := s.set.Category()
	gen := s.generation
	s.mu.Unlock()

	if category == "" {
		return nil, gen, ErrNotEnoughProducts
	}

	cfg, err := s.resolver.ResolveConfig(ctx, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Info("discarding superseded config fetch", "category", category)
		return nil, gen, ErrSuperseded
	}
	if err != nil {
		return nil, gen, err
	}
	s.config = cfg
	return cfg, gen, nil
}

// switchCategory invalidates state tied to the previous category. Callers
// hold s.mu.
func (s *Session) switchCategory() {
	s.generation++
	s.config = nil
	s.overrides = nil
	s.useCustom = false
	s.weights = nil
}

func (s *Session) touch() { s.lastActive = s.now() }
