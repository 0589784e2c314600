package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps values in a map. A positive Limit caps the total size
// of all values in bytes, like a browser storage quota.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	size   int
	Limit  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := m.size - len(m.values[key]) + len(value)
	if m.Limit > 0 && size > m.Limit {
		return ErrQuotaExceeded
	}
	m.values[key] = append([]byte(nil), value...)
	m.size = size
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size -= len(m.values[key])
	delete(m.values, key)
	return nil
}
