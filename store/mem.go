package store

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

var _ Store = (*MemStore)(nil)

// MemStore is the process local store, used when no backend
// is configured.
type MemStore struct {
	lock   sync.RWMutex
	data   map[string][]byte
	closed atomic.Bool
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte, 8)}
}

func (s *MemStore) Load(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (s *MemStore) Save(_ context.Context, key string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data[key] = slices.Clone(data)
	return nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemStore) Keys(context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *MemStore) Close() error {
	s.closed.Store(true)
	return nil
}
