package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/waxio/cloudwallet-go/pkg/persistence"
)

// MemoryStore is an in-memory implementation of Store, intended for
// testing and for browser-like embedders that manage persistence
// themselves. All data is lost when the process exits.
type MemoryStore struct {
	mu sync.RWMutex

	values map[string][]byte
	closed bool
}

// NewMemoryStore creates a new in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
	}
}

// SaveAutoLogin records the auto-login preference.
func (m *MemoryStore) SaveAutoLogin(_ context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("preference store is closed")
	}

	m.values[persistence.KeyAutoLogin] = persistence.EncodeBool(enabled)
	return nil
}

// LoadAutoLogin returns the persisted auto-login preference, false when unset.
func (m *MemoryStore) LoadAutoLogin(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("preference store is closed")
	}

	raw, exists := m.values[persistence.KeyAutoLogin]
	if !exists {
		return false, nil
	}
	return persistence.DecodeBool(raw)
}

// Close shuts down the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryStore) HealthCheck(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("preference store is closed")
	}
	return nil
}

var _ persistence.Store = (*MemoryStore)(nil)
