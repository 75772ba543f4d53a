// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used when DB_PATH is empty and in tests.
//
// Characteristics:
//   - Puzzles keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex      // guards puzzles map
	puzzles map[string]Puzzle // keyed by Puzzle.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{puzzles: make(map[string]Puzzle)}
}

func (m *memory) Save(ctx context.Context, p Puzzle) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puzzles[p.ID] = p
	return nil
}

func (m *memory) GetAll(ctx context.Context) ([]Puzzle, error) {
	m.mu.RLock()
	out := make([]Puzzle, 0, len(m.puzzles))
	for _, p := range m.puzzles {
		out = append(out, p)
	}
	m.mu.RUnlock()
	sortPuzzles(out)
	return out, nil
}

func (m *memory) GetByID(ctx context.Context, id string) (Puzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.puzzles[id]; ok {
		return p, nil
	}
	return Puzzle{}, ErrNotFound
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
