package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sync state in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]SyncState
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]SyncState)}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, sku string) (*SyncState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[sku]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Upsert implements Store
func (m *MemoryStore) Upsert(_ context.Context, sku, fingerprint string, isNew bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[sku] = SyncState{SKU: sku, Fingerprint: fingerprint, LastSyncedAt: at, SyncedAsNew: isNew}
	return nil
}

// Len returns the number of tracked products
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
