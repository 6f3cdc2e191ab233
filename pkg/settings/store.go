package settings

import (
	"context"
	"sort"
	"sync"

	"github.com/bft-labs/scriptd/pkg/log"
)

// Store is a concurrency-safe string map bound to a Backend.
type Store struct {
	mu      sync.RWMutex
	values  map[string]string
	backend Backend
	logger  log.Logger
}

// Open creates a store and loads it from backend once. Load failures are
// logged and produce an empty store. A nil backend means memory only.
func Open(ctx context.Context, backend Backend, logger log.Logger) *Store {
	logger = log.OrNoop(logger)
	if backend == nil {
		backend = NewMemoryBackend()
	}

	values, err := backend.Load(ctx)
	if err != nil {
		logger.Warn("settings unreadable, starting empty",
			log.String("location", backend.Location()),
			log.Err(err))
		values = nil
	}
	if values == nil {
		values = make(map[string]string)
	}

	return &Store{
		values:  values,
		backend: backend,
		logger:  logger,
	}
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetOr returns the value for key or def when absent.
func (s *Store) GetOr(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Set stores value under key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Clear removes every key.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}

// IsEmpty reports whether the store holds no keys.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of all values.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.values)
}

// Backend returns the backend the store flushes to.
func (s *Store) Backend() Backend {
	return s.backend
}

// Flush persists the store: a non-empty store is saved, an empty one removes
// whatever the backend holds.
func (s *Store) Flush(ctx context.Context) error {
	snapshot := s.Snapshot()
	if len(snapshot) == 0 {
		if err := s.backend.Remove(ctx); err != nil {
			return err
		}
		s.logger.Debug("settings removed", log.String("location", s.backend.Location()))
		return nil
	}

	if err := s.backend.Save(ctx, snapshot); err != nil {
		return err
	}
	s.logger.Debug("settings saved",
		log.String("location", s.backend.Location()),
		log.Int("keys", len(snapshot)))
	return nil
}
