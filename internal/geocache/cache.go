// Package geocache persists resolved geocode lookups for the lifetime of a
// dashboard session so repeat visits to the location views do not re-query
// the geocoder.
package geocache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/smkmitra/pkl-location-service/internal/domain"
)

// Store is the session-scoped key-value backing for the cache. It holds one
// named entry: the whole cache serialized as a JSON object of
// query → {lat, lng}.
type Store interface {
	// Load returns the stored blob, or (nil, nil) when no entry exists.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored blob.
	Save(ctx context.Context, blob []byte) error
}

// Cache maps free-text geocode queries to resolved coordinates. Keys are
// exact-match raw text: " Jl. A" and "Jl. A" are distinct entries. Entries
// are never invalidated within a session.
type Cache struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]domain.Coordinate
}

// New builds a Cache, loading any previously persisted entries once.
// Malformed or unreadable stored data is discarded and the cache starts
// empty; loading is never fatal.
func New(ctx context.Context, store Store, logger *slog.Logger) *Cache {
	c := &Cache{
		store:   store,
		logger:  logger,
		entries: make(map[string]domain.Coordinate),
	}

	blob, err := store.Load(ctx)
	if err != nil {
		logger.Warn("geocode cache load failed, starting empty", "error", err)
		return c
	}
	if len(blob) == 0 {
		return c
	}
	if err := json.Unmarshal(blob, &c.entries); err != nil {
		logger.Warn("discarding malformed geocode cache", "error", err)
		c.entries = make(map[string]domain.Coordinate)
	}
	return c
}

// Get returns the coordinates stored for the exact query string.
func (c *Cache) Get(query string) (domain.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coord, ok := c.entries[query]
	return coord, ok
}

// Put stores a resolved pair and immediately persists the entire cache back
// to the store (write-through). Persistence failures are logged and
// swallowed: the in-memory entry survives for the rest of the process.
func (c *Cache) Put(ctx context.Context, query string, coord domain.Coordinate) {
	c.mu.Lock()
	c.entries[query] = coord
	blob, err := json.Marshal(c.entries)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("geocode cache marshal failed", "error", err)
		return
	}
	if err := c.store.Save(ctx, blob); err != nil {
		c.logger.Warn("geocode cache persist failed", "error", err)
	}
}

// Len reports the number of cached queries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MemoryStore is an in-process Store for tests, one-shot tools, and
// deployments without Redis.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	out := make([]byte, len(s.blob))
	copy(out, s.blob)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = make([]byte, len(blob))
	copy(s.blob, blob)
	return nil
}
