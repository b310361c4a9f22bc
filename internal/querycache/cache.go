package querycache

import (
	"context"
	"time"

	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	"github.com/angelmondragon/catalog-storefront/pkg/redis"
)

var (
	_ Store         = (*redis.Client)(nil)
	_ Store         = (*MemoryStore)(nil)
	_ catalog.Cache = (*Cache)(nil)
)

// Store is the key/value backend of the query cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, scope string) (int64, error)
	BumpGeneration(ctx context.Context, scope string) (int64, error)
	QueryKey(generation int64, scope, query string) string
}

// Cache keys every entry by the current generation of its scope. Invalidating
// a scope bumps the generation so older entries are never read again and
// expire by TTL.
type Cache struct {
	store Store
	ttl   time.Duration
}

// New returns a cache writing entries with the given TTL.
func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Get looks key up under the current generation of scope and returns that
// generation for the matching Set.
func (c *Cache) Get(ctx context.Context, scope, key string) ([]byte, int64, bool, error) {
	gen, err := c.store.Generation(ctx, scope)
	if err != nil {
		return nil, 0, false, err
	}
	value, ok, err := c.store.Get(ctx, c.store.QueryKey(gen, scope, key))
	if err != nil {
		return nil, gen, false, err
	}
	return value, gen, ok, nil
}

// Set stores value under generation. Entries written for an invalidated
// generation are never read.
func (c *Cache) Set(ctx context.Context, scope, key string, generation int64, value []byte) error {
	return c.store.Set(ctx, c.store.QueryKey(generation, scope, key), value, c.ttl)
}

// Invalidate drops every cached entry of scope.
func (c *Cache) Invalidate(ctx context.Context, scope string) error {
	_, err := c.store.BumpGeneration(ctx, scope)
	return err
}
