package querycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheInvalidateHidesOlderEntries(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryStore(16, time.Minute), time.Minute)

	_, gen, ok, err := cache.Get(ctx, "products", "products?page=1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, "products", "products?page=1", gen, []byte(`{"products":[]}`)))
	got, _, ok, err := cache.Get(ctx, "products", "products?page=1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"products":[]}`, string(got))

	require.NoError(t, cache.Invalidate(ctx, "products"))
	_, _, ok, err = cache.Get(ctx, "products", "products?page=1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheDropsWritesFromInvalidatedGeneration(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryStore(16, time.Minute), time.Minute)

	_, gen, ok, err := cache.Get(ctx, "products", "products/1")
	require.NoError(t, err)
	require.False(t, ok)

	// An update lands while the read is still fetching.
	require.NoError(t, cache.Invalidate(ctx, "products"))
	require.NoError(t, cache.Set(ctx, "products", "products/1", gen, []byte(`{"name":"old"}`)))

	_, current, ok, err := cache.Get(ctx, "products", "products/1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, current, gen)
}

func TestCacheScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryStore(16, time.Minute), time.Minute)

	require.NoError(t, cache.Set(ctx, "products", "k", 0, []byte("a")))
	require.NoError(t, cache.Set(ctx, "reviews", "k", 0, []byte("b")))
	require.NoError(t, cache.Invalidate(ctx, "reviews"))

	got, _, ok, err := cache.Get(ctx, "products", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", string(got))
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2, time.Minute)

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, store.Len())
	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4, time.Minute)

	value := []byte("lamp")
	require.NoError(t, store.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "lamp", string(got))
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Generation(context.Context, string) (int64, error) {
	return 0, errors.New("redis down")
}

func TestCacheSurfacesStoreErrors(t *testing.T) {
	cache := New(&failingStore{MemoryStore: NewMemoryStore(1, time.Minute)}, time.Minute)

	_, _, _, err := cache.Get(context.Background(), "products", "k")
	assert.Error(t, err)
}
