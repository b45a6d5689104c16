package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/Versus/internal/cache"
	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/hermes"
	"github.com/MikeSquared-Agency/Versus/internal/metrics"
)

var (
	// ErrConfigNotFound means the category has no stored weight configuration,
	// so no comparison is possible for it.
	ErrConfigNotFound = errors.New("no comparison possible for this category")

	// ErrProductNotFound means a referenced product identifier does not exist.
	ErrProductNotFound = errors.New("product not found")
)

// Resolver serves catalog snapshots and category configs through the cache,
// falling back to one remote fetch per miss. Fetches are never retried.
type Resolver struct {
	source catalog.Source
	cache  *cache.Cache
	hermes hermes.Client
	logger *slog.Logger
}

// New creates a Resolver. h may be nil when no event bus is configured.
func New(src catalog.Source, c *cache.Cache, h hermes.Client, logger *slog.Logger) *Resolver {
	return &Resolver{source: src, cache: c, hermes: h, logger: logger}
}

// ResolveConfig returns the config for categoryID from a fresh cache entry or
// from the source, storing fetched configs in the cache.
func (r *Resolver) ResolveConfig(ctx context.Context, categoryID string) (*catalog.CategoryConfig, error) {
	cfg, ok, err := r.cache.Category(ctx, categoryID)
	if err != nil {
		r.logger.Warn("category cache read failed", "category", categoryID, "error", err)
	}
	if ok {
		metrics.CacheLookups.WithLabelValues("category", "hit").Inc()
		return cfg, nil
	}
	metrics.CacheLookups.WithLabelValues("category", "miss").Inc()

	cfg, err = r.source.GetCategoryConfig(ctx, categoryID)
	if errors.Is(err, catalog.ErrNotFound) || (err == nil && (cfg == nil || len(cfg.Weights) == 0)) {
		metrics.SourceFetches.WithLabelValues("category", "not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, categoryID)
	}
	if err != nil {
		metrics.SourceFetches.WithLabelValues("category", "error").Inc()
		return nil, fmt.Errorf("fetch category %s: %w", categoryID, err)
	}
	metrics.SourceFetches.WithLabelValues("category", "ok").Inc()

	cfg.ID = categoryID
	if err := cfg.Validate(); err != nil {
		r.logger.Warn("category config failed validation", "category", categoryID, "error", err)
	}
	if err := r.cache.PutCategory(ctx, cfg); err != nil {
		r.logger.Warn("category cache write failed", "category", categoryID, "error", err)
	}
	return cfg, nil
}

// Products returns the catalog snapshot, fetching it when the cached copy is
// absent or stale.
func (r *Resolver) Products(ctx context.Context) ([]catalog.Product, error) {
	products, ok, err := r.cache.Products(ctx)
	if err != nil {
		r.logger.Warn("catalog cache read failed", "error", err)
	}
	if ok {
		metrics.CacheLookups.WithLabelValues("products", "hit").Inc()
		return products, nil
	}
	metrics.CacheLookups.WithLabelValues("products", "miss").Inc()

	products, err = r.source.ListProducts(ctx)
	if err != nil {
		metrics.SourceFetches.WithLabelValues("products", "error").Inc()
		return nil, fmt.Errorf("list products: %w", err)
	}
	metrics.SourceFetches.WithLabelValues("products", "ok").Inc()

	if err := r.cache.PutProducts(ctx, products); err != nil {
		r.logger.Warn("catalog cache write failed", "error", err)
	}
	r.logger.Info("catalog loaded", "products", len(products))
	return products, nil
}

// Product finds a product by identifier: first in the cached catalog
// snapshot, then through a direct lookup.
func (r *Resolver) Product(ctx context.Context, id string) (*catalog.Product, error) {
	if products, ok, _ := r.cache.Products(ctx); ok {
		for i := range products {
			if products[i].ID == id {
				p := products[i]
				return &p, nil
			}
		}
	}

	p, err := r.source.GetProduct(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) || (err == nil && p == nil) {
		metrics.SourceFetches.WithLabelValues("product", "not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		metrics.SourceFetches.WithLabelValues("product", "error").Inc()
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	metrics.SourceFetches.WithLabelValues("product", "ok").Inc()
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// ClearCategory drops one category's cached config.
func (r *Resolver) ClearCategory(ctx context.Context, categoryID string) error {
	if err := r.cache.ClearCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("clear category %s: %w", categoryID, err)
	}
	r.publish(hermes.CacheInvalidatedEvent{Scope: "category", CategoryID: categoryID, Timestamp: time.Now()})
	return nil
}

// Refresh invalidates the catalog snapshot and all category configs at once.
// The next read goes to the source.
func (r *Resolver) Refresh(ctx context.Context) error {
	if err := r.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	r.logger.Info("cache invalidated")
	r.publish(hermes.CacheInvalidatedEvent{Scope: "all", Timestamp: time.Now()})
	return nil
}

// SetupSubscriptions clears cached data when catalog writers announce changes.
func (r *Resolver) SetupSubscriptions() error {
	if r.hermes == nil {
		return nil
	}
	return r.hermes.Subscribe(hermes.SubjectCatalogUpdated, func(_ string, data []byte) {
		var evt hermes.CatalogUpdatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			r.logger.Warn("bad catalog update event", "error", err)
			return
		}
		ctx := context.Background()
		var err error
		if evt.CategoryID != "" {
			err = r.ClearCategory(ctx, evt.CategoryID)
		} else {
			err = r.Refresh(ctx)
		}
		if err != nil {
			r.logger.Error("cache invalidation failed", "category", evt.CategoryID, "error", err)
		}
	})
}

func (r *Resolver) publish(evt hermes.CacheInvalidatedEvent) {
	if r.hermes == nil {
		return
	}
	if err := r.hermes.Publish(hermes.SubjectCacheInvalidated, evt); err != nil {
		r.logger.Warn("publish cache event failed", "error", err)
	}
}
