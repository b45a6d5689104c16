package comparison

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Versus/internal/cache"
	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
	"github.com/MikeSquared-Agency/Versus/internal/scoring"
)

// mutableSource serves one category whose weights can change between calls.
type mutableSource struct {
	mu      sync.Mutex
	weights map[string]float64
	calls   int
}

func (m *mutableSource) setWeights(w map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights = w
}

func (m *mutableSource) configCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mutableSource) ListProducts(_ context.Context) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mutableSource) GetProduct(_ context.Context, _ string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (m *mutableSource) GetCategoryConfig(_ context.Context, id string) (*catalog.CategoryConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	w := make(map[string]float64, len(m.weights))
	for k, v := range m.weights {
		w[k] = v
	}
	return &catalog.CategoryConfig{ID: id, Weights: w}, nil
}

func TestSession_FollowsResolverCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	src := &mutableSource{weights: map[string]float64{"ram": 1}}
	res := resolver.New(src, cache.New(cache.NewMemoryKV(), time.Hour, discardLogger(), cache.WithClock(clock)), nil, discardLogger())
	s := newSession("s1", res, scoring.NewScorer(discardLogger()), discardLogger(), clock)

	_, err := s.Add(specPhone("a", 4, 5000))
	require.NoError(t, err)
	_, err = s.Add(specPhone("b", 8, 3000))
	require.NoError(t, err)

	cmp, err := s.Compare(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ram"}, cmp.Attributes)
	assert.Equal(t, "b", cmp.Results[0].Product.ID)

	// Within the window the cached config is reused without a remote call.
	src.setWeights(map[string]float64{"battery": 1})
	cmp, err = s.Compare(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ram"}, cmp.Attributes)
	assert.Equal(t, 1, src.configCalls())

	// A force refresh reaches the running session.
	require.NoError(t, res.Refresh(ctx))
	cmp, err = s.Compare(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"battery"}, cmp.Attributes)
	assert.Equal(t, "a", cmp.Results[0].Product.ID)
	assert.Equal(t, 2, src.configCalls())

	// So does the freshness window running out.
	src.setWeights(map[string]float64{"ram": 1})
	now = now.Add(2 * time.Hour)
	cmp, err = s.Compare(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ram"}, cmp.Attributes)
	assert.Equal(t, 3, src.configCalls())
	assert.Equal(t, []string{"ram"}, s.Snapshot().Config.Attributes(s.Snapshot().Config.Weights))
}
