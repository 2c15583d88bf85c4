package mocks

import (
	"slices"
	"sync"
)

// MockKeyValueStore is an in-memory ports.KeyValueStore
type MockKeyValueStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMockKeyValueStore creates an empty store
func NewMockKeyValueStore() *MockKeyValueStore {
	return &MockKeyValueStore{data: make(map[string][]byte)}
}

func (m *MockKeyValueStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return slices.Clone(v), ok, nil
}

func (m *MockKeyValueStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MockKeyValueStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
