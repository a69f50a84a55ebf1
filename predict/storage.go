package predict

import (
	"context"
	"sync"
)

// AdvertisingIDKey is the storage key of the device tracking identifier.
const AdvertisingIDKey = "advertisingId"

// Storage persists small values across process restarts. It only holds the
// device tracking identifier.
type Storage interface {
	// Get returns the value stored for key and whether one was found.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value for key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
}

// MemoryStorage is a Storage that lives as long as the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Reset drops every stored value.
func (m *MemoryStorage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
}
