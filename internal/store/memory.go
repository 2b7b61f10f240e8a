package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a concurrency-safe in-process DocumentStore. Documents are
// kept as encoded JSON so readers never share memory with writers.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte

	// writes counts successful Replace calls.
	writes int
}

// NewMemoryStore creates an empty MemoryStore, or one seeded with doc when
// doc is non-nil.
func NewMemoryStore(doc any) (*MemoryStore, error) {
	s := &MemoryStore{}
	if doc == nil {
		return s, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	s.data = data
	return s, nil
}

func (s *MemoryStore) Latest(_ context.Context, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return ErrNotFound
	}
	return json.Unmarshal(s.data, out)
}

func (s *MemoryStore) Replace(_ context.Context, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	s.writes++
	return nil
}

// Writes reports how many times the document has been replaced.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
