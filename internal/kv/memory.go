package kv

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// Memory is an in-process KVStore. Values do not survive the process.
type Memory struct {
	mu     sync.RWMutex
	closed bool
	data   map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, types.ErrKVClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrKVClosed
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrKVClosed
	}
	delete(m.data, key)
	return nil
}

// Close marks the store closed. Idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
