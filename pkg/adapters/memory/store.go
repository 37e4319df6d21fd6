package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/pkg/domain"
)

// Store keeps live machines in memory, keyed by ID.
// Safe for concurrent use; the machines themselves are not.
type Store struct {
	data map[string]*rewind.Machine
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*rewind.Machine),
	}
}

// Save registers the machine under id, replacing any previous one.
func (s *Store) Save(ctx context.Context, id string, m *rewind.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = m
	return nil
}

// Load retrieves the machine registered under id.
func (s *Store) Load(ctx context.Context, id string) (*rewind.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return m, nil
}

// Delete removes the machine.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the registered IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
