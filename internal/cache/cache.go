package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

// Key layout shared with the browser client's local storage.
const (
	ProductsKey    = "products"
	CategoryPrefix = "category_"
	timeSuffix     = "_cache_time"

	DefaultWindow = time.Hour
)

// CategoryKey returns the snapshot key for a category config.
func CategoryKey(categoryID string) string { return CategoryPrefix + categoryID }

// TimeKey returns the timestamp key paired with a snapshot key.
func TimeKey(key string) string { return key + timeSuffix }

// Cache stores catalog and category snapshots with a freshness window.
type Cache struct {
	kv     KV
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(kv KV, window time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	c := &Cache{kv: kv, window: window, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Window() time.Duration { return c.window }

// Products returns the cached catalog snapshot if it is still fresh.
func (c *Cache) Products(ctx context.Context) ([]catalog.Product, bool, error) {
	var products []catalog.Product
	ok, err := c.load(ctx, ProductsKey, &products)
	if err != nil || !ok {
		return nil, false, err
	}
	return products, true, nil
}

func (c *Cache) PutProducts(ctx context.Context, products []catalog.Product) error {
	return c.store(ctx, ProductsKey, products)
}

// Category returns the cached config for categoryID if it is still fresh.
func (c *Cache) Category(ctx context.Context, categoryID string) (*catalog.CategoryConfig, bool, error) {
	var cfg catalog.CategoryConfig
	ok, err := c.load(ctx, CategoryKey(categoryID), &cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (c *Cache) PutCategory(ctx context.Context, cfg *catalog.CategoryConfig) error {
	return c.store(ctx, CategoryKey(cfg.ID), cfg)
}

// ClearCategory drops one category's entry. Other categories are untouched.
func (c *Cache) ClearCategory(ctx context.Context, categoryID string) error {
	key := CategoryKey(categoryID)
	return c.kv.DeleteWhere(ctx, func(k string) bool {
		return k == key || k == TimeKey(key)
	})
}

// Invalidate drops the catalog snapshot and every category entry in one
// atomic operation.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.kv.DeleteWhere(ctx, func(k string) bool {
		return k == ProductsKey || k == TimeKey(ProductsKey) || strings.HasPrefix(k, CategoryPrefix)
	})
}

func (c *Cache) load(ctx context.Context, key string, dst any) (bool, error) {
	stamp, ok, err := c.kv.Get(ctx, TimeKey(key))
	if err != nil || !ok {
		return false, err
	}
	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		c.logger.Warn("cache timestamp unreadable", "key", key, "error", err)
		return false, nil
	}
	if c.now().Sub(time.UnixMilli(ms)) >= c.window {
		return false, nil
	}

	payload, ok, err := c.kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *Cache) store(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.kv.SetMany(ctx, map[string]string{
		key:          string(payload),
		TimeKey(key): strconv.FormatInt(c.now().UnixMilli(), 10),
	})
}
