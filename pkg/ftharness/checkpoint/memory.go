package checkpoint

import (
	"sync"
)

// MemoryStore is an in-memory checkpoint store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	rec    Record
	saved  bool
	saves  int
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates an in-memory store that already holds rec,
// as if a previous run had saved it.
func NewMemoryStoreWith(rec Record) *MemoryStore {
	return &MemoryStore{rec: rec, saved: true}
}

// Load implements Store.
func (m *MemoryStore) Load() (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}
	if !m.saved {
		return Record{}, ErrNotFound
	}
	return m.rec, nil
}

// Save implements Store.
func (m *MemoryStore) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.rec = rec
	m.saved = true
	m.saves++
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Saves returns how many times Save succeeded.
// Useful for testing.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
