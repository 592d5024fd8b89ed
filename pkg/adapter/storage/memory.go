package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
)

// Memory keeps session data for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

var _ interfaces.SessionStorage = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string][]byte),
	}
}

func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items[key]), nil
}

func (m *Memory) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = slices.Clone(data)
	return nil
}

func (m *Memory) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
