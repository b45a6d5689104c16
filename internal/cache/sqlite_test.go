package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

func openTestSQLite(t *testing.T) *SQLiteKV {
	t.Helper()
	kv, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSQLiteKV_GetSet(t *testing.T) {
	ctx := context.Background()
	kv := openTestSQLite(t)

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, kv.SetMany(ctx, map[string]string{"a": "3"}))

	v, ok, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestSQLiteKV_DeleteWhere(t *testing.T) {
	ctx := context.Background()
	kv := openTestSQLite(t)

	require.NoError(t, kv.SetMany(ctx, map[string]string{"category_a": "x", "category_b": "y", "products": "z"}))
	require.NoError(t, kv.DeleteWhere(ctx, func(k string) bool { return k == "category_a" }))

	_, ok, _ := kv.Get(ctx, "category_a")
	assert.False(t, ok)
	_, ok, _ = kv.Get(ctx, "category_b")
	assert.True(t, ok)
}

func TestSQLiteBackedCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(openTestSQLite(t))

	require.NoError(t, c.PutCategory(ctx, phoneConfig()))
	require.NoError(t, c.PutProducts(ctx, []catalog.Product{
		{ID: "p1", Category: "smartphones", Attributes: map[string]catalog.Value{"ram": catalog.Number(8)}},
	}))

	products, ok, err := c.Products(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, catalog.Number(8), products[0].Attributes["ram"])

	require.NoError(t, c.Invalidate(ctx))
	_, ok, _ = c.Category(ctx, "smartphones")
	assert.False(t, ok)
}

func TestSQLiteKV_SingleOwner(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, err = OpenSQLite(ctx, path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Close())
	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
