package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Versus/internal/cache"
	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/hermes"
)

type fakeSource struct {
	products   []catalog.Product
	configs    map[string]*catalog.CategoryConfig
	err        error
	listCalls  int
	getCalls   int
	configCall map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		products: []catalog.Product{
			{ID: "p1", Category: "smartphones", Name: "Pixel"},
			{ID: "p2", Category: "smartphones", Name: "Galaxy"},
		},
		configs: map[string]*catalog.CategoryConfig{
			"smartphones": {Weights: map[string]float64{"ram": 0.5, "battery": 0.5}},
			"laptops":     {Weights: map[string]float64{"ram": 1}},
		},
		configCall: map[string]int{},
	}
}

func (f *fakeSource) ListProducts(_ context.Context) ([]catalog.Product, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeSource) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	if id == "remote-only" {
		return &catalog.Product{ID: id, Category: "laptops"}, nil
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeSource) GetCategoryConfig(_ context.Context, id string) (*catalog.CategoryConfig, error) {
	f.configCall[id]++
	if f.err != nil {
		return nil, f.err
	}
	cfg, ok := f.configs[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

type recordingHermes struct {
	published []string
	handlers  map[string]func(string, []byte)
}

func (h *recordingHermes) Publish(subject string, _ interface{}) error {
	h.published = append(h.published, subject)
	return nil
}

func (h *recordingHermes) Subscribe(subject string, handler func(string, []byte)) error {
	if h.handlers == nil {
		h.handlers = map[string]func(string, []byte){}
	}
	h.handlers[subject] = handler
	return nil
}

func (h *recordingHermes) Close() {}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(t *testing.T) (*Resolver, *fakeSource, *clock, *recordingHermes) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := &clock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	c := cache.New(cache.NewMemoryKV(), time.Hour, logger, cache.WithClock(clk.now))
	src := newFakeSource()
	h := &recordingHermes{}
	return New(src, c, h, logger), src, clk, h
}

func TestResolveConfig_CachesWithinWindow(t *testing.T) {
	r, src, clk, _ := setup(t)
	ctx := context.Background()

	cfg, err := r.ResolveConfig(ctx, "smartphones")
	require.NoError(t, err)
	assert.Equal(t, "smartphones", cfg.ID)

	_, err = r.ResolveConfig(ctx, "smartphones")
	require.NoError(t, err)
	assert.Equal(t, 1, src.configCall["smartphones"], "second read should be served from cache")

	clk.t = clk.t.Add(time.Hour)
	_, err = r.ResolveConfig(ctx, "smartphones")
	require.NoError(t, err)
	assert.Equal(t, 2, src.configCall["smartphones"], "stale entry should be refetched")
}

func TestResolveConfig_NotFound(t *testing.T) {
	r, _, _, _ := setup(t)

	_, err := r.ResolveConfig(context.Background(), "tablets")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestResolveConfig_SourceErrorNotRetried(t *testing.T) {
	r, src, _, _ := setup(t)
	src.err = errors.New("connection refused")

	_, err := r.ResolveConfig(context.Background(), "smartphones")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
	assert.Equal(t, 1, src.configCall["smartphones"])
}

func TestProducts_CachedSnapshot(t *testing.T) {
	r, src, _, _ := setup(t)
	ctx := context.Background()

	products, err := r.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = r.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.listCalls)
}

func TestProduct_Lookup(t *testing.T) {
	r, src, _, _ := setup(t)
	ctx := context.Background()

	_, err := r.Products(ctx)
	require.NoError(t, err)

	p, err := r.Product(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Galaxy", p.Name)
	assert.Equal(t, 0, src.getCalls, "snapshot hit should not call the source")

	p, err = r.Product(ctx, "remote-only")
	require.NoError(t, err)
	assert.Equal(t, "laptops", p.Category)

	_, err = r.Product(ctx, "ghost")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRefresh_InvalidatesEverything(t *testing.T) {
	r, src, _, h := setup(t)
	ctx := context.Background()

	_, _ = r.Products(ctx)
	_, _ = r.ResolveConfig(ctx, "smartphones")
	_, _ = r.ResolveConfig(ctx, "laptops")

	require.NoError(t, r.Refresh(ctx))

	_, _ = r.Products(ctx)
	_, _ = r.ResolveConfig(ctx, "smartphones")
	_, _ = r.ResolveConfig(ctx, "laptops")

	assert.Equal(t, 2, src.listCalls)
	assert.Equal(t, 2, src.configCall["smartphones"])
	assert.Equal(t, 2, src.configCall["laptops"])
	assert.Contains(t, h.published, hermes.SubjectCacheInvalidated)
}

func TestClearCategory_LeavesOthers(t *testing.T) {
	r, src, _, _ := setup(t)
	ctx := context.Background()

	_, _ = r.ResolveConfig(ctx, "smartphones")
	_, _ = r.ResolveConfig(ctx, "laptops")
	require.NoError(t, r.ClearCategory(ctx, "smartphones"))

	_, _ = r.ResolveConfig(ctx, "smartphones")
	_, _ = r.ResolveConfig(ctx, "laptops")
	assert.Equal(t, 2, src.configCall["smartphones"])
	assert.Equal(t, 1, src.configCall["laptops"])
}

func TestSetupSubscriptions_CatalogUpdate(t *testing.T) {
	r, src, _, h := setup(t)
	ctx := context.Background()
	require.NoError(t, r.SetupSubscriptions())

	_, _ = r.ResolveConfig(ctx, "laptops")
	payload, _ := json.Marshal(hermes.CatalogUpdatedEvent{CategoryID: "laptops"})
	h.handlers[hermes.SubjectCatalogUpdated](hermes.SubjectCatalogUpdated, payload)

	_, _ = r.ResolveConfig(ctx, "laptops")
	assert.Equal(t, 2, src.configCall["laptops"])
}
