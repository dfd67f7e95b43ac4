package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Entry is the cached envelope for one computed result. Entries are replaced
// wholesale, never partially updated.
type Entry struct {
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	ComputedAt time.Time       `json:"computed_at"`
	TTL        time.Duration   `json:"ttl"`
}

// Fresh reports whether the entry is still within its TTL.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Sub(e.ComputedAt) < e.TTL
}

// Store is the cache backend abstraction. Expired entries remain retrievable
// until the retention window lapses so the result cache can serve them as a
// stale fallback when recomputation fails.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, key string) error
}

// staleRetentionFactor controls how many TTL multiples an expired entry stays
// available as a stale fallback.
const staleRetentionFactor = 4

// MemoryStore is the in-process Store used in tests and single-node
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns the entry for key, including expired entries still inside the
// stale retention window.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if time.Since(entry.ComputedAt) > entry.TTL*staleRetentionFactor {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	copied := *entry
	return &copied, true, nil
}

// Set replaces the entry for entry.Key.
func (s *MemoryStore) Set(_ context.Context, entry *Entry) error {
	copied := *entry
	s.mu.Lock()
	s.entries[entry.Key] = &copied
	s.mu.Unlock()
	return nil
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
