// Package cache provides a get-or-compute TTL cache shared by all upstream
// clients. Values are stored as JSON so the in-memory and Redis backends
// behave identically.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/web3-frozen/defiboard/internal/metrics"
)

// Store is a TTL key-value backend. Both implementations are advisory:
// a failed read is a miss, a failed write is ignored.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// Cache wraps a Store with single-flight de-duplication so two concurrent
// misses for the same key trigger exactly one upstream fetch.
type Cache struct {
	store  Store
	logger *slog.Logger
	sf     singleflight.Group
}

func New(store Store, logger *slog.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// GetOrFetch returns the cached value for key, or computes it via fetch and
// caches the result for ttl. Fetch errors are returned to every caller
// coalesced onto the in-flight computation; nothing is cached on error.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok := c.store.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.CacheHits.WithLabelValues(key).Inc()
			return v, nil
		}
		c.logger.Warn("cache entry corrupt, refetching", "key", key)
	}
	metrics.CacheMisses.WithLabelValues(key).Inc()

	res, err, _ := c.sf.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(v); err == nil {
			c.store.Set(ctx, key, raw, ttl)
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

// --- In-memory store ---

type memoryEntry struct {
	val     []byte
	expires time.Time
}

// Memory is the default process-local store. Expired entries are evicted
// lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.val, true
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{val: val, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
}
