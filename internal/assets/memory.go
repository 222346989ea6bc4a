package assets

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a Store held in process memory. It backs the server when
// no database is configured, and the tests.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int]Asset
	nextID int
}

// NewMemoryStore creates a store holding seed. Seed IDs are kept; the
// next generated ID follows the largest of them.
func NewMemoryStore(seed ...Asset) *MemoryStore {
	s := &MemoryStore{rows: make(map[int]Asset, len(seed)), nextID: 1}
	for _, a := range seed {
		if a.ID == 0 {
			a.ID = s.nextID
		}
		s.rows[a.ID] = a
		if a.ID >= s.nextID {
			s.nextID = a.ID + 1
		}
	}
	return s
}

// List returns all assets ordered by created_at then ID, newest first.
func (s *MemoryStore) List(_ context.Context) ([]Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Asset, 0, len(s.rows))
	for _, a := range s.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return Asset{}, NotFound(id)
	}
	return a, nil
}

func (s *MemoryStore) Create(_ context.Context, a Asset) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID
	s.nextID++
	s.rows[a.ID] = a
	return a, nil
}

func (s *MemoryStore) Update(_ context.Context, a Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[a.ID]; !ok {
		return NotFound(a.ID)
	}
	s.rows[a.ID] = a
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return NotFound(id)
	}
	delete(s.rows, id)
	return nil
}
