package memory

import (
	"context"
	"fmt"
	"sync"

	"cataloging/internal/core"
)

// Store is an in-memory sheet stand-in keyed by record id. It backs tests
// and local runs without Google credentials.
type Store struct {
	mu    sync.Mutex
	items map[int64]core.CatalogRecord
}

func New() *Store {
	return &Store{items: make(map[int64]core.CatalogRecord)}
}

// Upsert stores the record and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, rec core.CatalogRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.ID] = rec
	return fmt.Sprintf("mem:%d", rec.ID), nil
}

// Remove drops the record; removing an unknown id is a no-op.
func (s *Store) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Get returns the stored record, for assertions.
func (s *Store) Get(id int64) (core.CatalogRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	return rec, ok
}

// Len returns how many records are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
