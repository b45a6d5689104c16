package cache

import (
	"context"
	"sync"
)

// KV is the persisted key-value layer under Cache. Multi-key writes and
// deletes are atomic.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, entries map[string]string) error
	DeleteWhere(ctx context.Context, match func(key string) bool) error
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) SetMany(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryKV) DeleteWhere(_ context.Context, match func(key string) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if match(k) {
			delete(m.data, k)
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
