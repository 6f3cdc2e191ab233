package settings

import (
	"context"
	"sync"
)

// Backend persists one identity's key-value map.
type Backend interface {
	// Load returns the persisted values. A backend with nothing persisted
	// returns an empty map and nil error.
	Load(ctx context.Context) (map[string]string, error)

	// Save replaces the persisted values atomically.
	Save(ctx context.Context, values map[string]string) error

	// Remove deletes any persisted values. Removing nothing is not an error.
	Remove(ctx context.Context) error

	// Location describes where values are persisted, for logging.
	Location() string
}

// MemoryBackend keeps values in process memory.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryBackend creates an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns a copy of the saved values.
func (m *MemoryBackend) Load(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMap(m.values), nil
}

// Save stores a copy of values.
func (m *MemoryBackend) Save(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = copyMap(values)
	return nil
}

// Remove forgets the saved values.
func (m *MemoryBackend) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = nil
	return nil
}

// Location returns "memory".
func (m *MemoryBackend) Location() string { return "memory" }

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
