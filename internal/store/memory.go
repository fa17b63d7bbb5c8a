// internal/store/memory.go
//
// In-memory implementation of Store.
// Used for development, tests, or when durability is not required.
//
// Characteristics:
//   - Puzzles keyed by ID in a map, guarded by an RWMutex.
//   - Update holds the write lock while fn runs, so engine mutation is serialized.
//   - Get returns a deep copy; callers never share an engine with the store.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"
)

type memory struct {
	mu      sync.RWMutex
	puzzles map[string]*Puzzle
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{puzzles: make(map[string]*Puzzle)}
}

func (m *memory) Create(ctx context.Context, p *Puzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puzzles[p.ID] = clone(p)
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Puzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.puzzles[id]; ok {
		return clone(p), nil
	}
	return nil, ErrNotFound
}

func (m *memory) Update(ctx context.Context, id string, fn func(p *Puzzle) error) (*Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.puzzles[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Work on a copy so a failing fn leaves the stored puzzle untouched.
	p := clone(cur)
	if err := fn(p); err != nil {
		return nil, err
	}
	p.ID = id
	p.UpdatedAt = now()
	m.puzzles[id] = p
	return clone(p), nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.puzzles[id]; !ok {
		return ErrNotFound
	}
	delete(m.puzzles, id)
	return nil
}

func (m *memory) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*Puzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Puzzle
	for _, p := range m.puzzles {
		if p.OwnerID == ownerID {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) ClaimOwner(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.puzzles {
		if p.OwnerID == from {
			p.OwnerID = to
		}
	}
	return nil
}
