// Package storage provides the key-value slots the inventory is persisted to.
// A slot holds one opaque payload per key; the product store writes the whole
// collection under a single fixed key.
package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrEmptySlot means nothing has been written under the key yet.
	ErrEmptySlot = errors.New("storage slot is empty")
	// ErrUnknownDriver is returned by Open for an unsupported STORAGE_DRIVER.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Slot reads and writes whole payloads by key.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemorySlot keeps payloads in process memory.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrEmptySlot
	}
	return append([]byte(nil), v...), nil
}

func (m *MemorySlot) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
