package dishimage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Status is the terminal state of a cache entry. The pending state of
// the per-key state machine lives in the service's in-flight table, not
// in the store, because waiters share a channel that cannot be persisted.
type Status string

const (
	StatusReady  Status = "ready"
	StatusFailed Status = "failed"
)

// Entry is one cached generation outcome. Expired entries are evicted
// lazily: the next lookup treats them as absent and regenerates.
type Entry struct {
	Key            string
	Status         Status
	URL            string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	ExpiresAt      time.Time
}

// Store persists terminal cache entries. Injectable so tests use the
// in-memory map and production can point at Postgres without changing
// call sites.
type Store interface {
	// Get returns the entry for key, or nil if absent, and refreshes
	// its last-accessed time.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put inserts or replaces the entry for its key.
	Put(ctx context.Context, e *Entry) error
}

// CacheKey derives the deterministic cache key for a dish from its
// normalized name and description.
func CacheKey(dishName, description string) string {
	h := sha256.Sum256([]byte(normalize(dishName) + "\n" + normalize(description)))
	return hex.EncodeToString(h[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MemoryStore is the default Store: a map guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	e.LastAccessedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) Put(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries[e.Key] = &cp
	return nil
}
