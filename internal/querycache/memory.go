package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is the in-process Store used when Redis is not configured.
// Entries share one TTL and the oldest entries are evicted past maxEntries.
type MemoryStore struct {
	entries *expirable.LRU[string, []byte]

	mu          sync.Mutex
	generations map[string]int64
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	return &MemoryStore{
		entries:     expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
		generations: map[string]int64{},
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores value; the per-call ttl is ignored in favour of the store TTL.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.entries.Add(key, append([]byte(nil), value...))
	return nil
}

func (m *MemoryStore) Generation(_ context.Context, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[scope], nil
}

func (m *MemoryStore) BumpGeneration(_ context.Context, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[scope]++
	return m.generations[scope], nil
}

func (m *MemoryStore) QueryKey(generation int64, scope, query string) string {
	return strings.Join([]string{"query", strconv.FormatInt(generation, 10), scope, query}, ":")
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	return m.entries.Len()
}
