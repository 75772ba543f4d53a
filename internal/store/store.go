// internal/store/store.go
//
// Persistence for generated puzzles.
// Two implementations share the Store interface:
//   - memory: map guarded by an RWMutex, lost on restart (default).
//   - sqlite: mattn/go-sqlite3 with embedded migrations (DB_PATH set).
//
// Puzzles are stored as plain snapshots; the store knows nothing about how
// they were built.

package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/robalobadob/crossword/internal/crossword"
)

// ErrNotFound is returned by GetByID and Delete for unknown ids.
var ErrNotFound = errors.New("puzzle not found")

// Kind tells stored puzzles apart by who produced them.
type Kind string

const (
	KindSaved Kind = "saved" // stored through the API
	KindPool  Kind = "pool"  // pre-generated, handed out once
	KindDaily Kind = "daily" // one per date and difficulty
)

// Puzzle is one stored grid.
type Puzzle struct {
	ID         string               `json:"id"`
	Kind       Kind                 `json:"kind"`
	Difficulty crossword.Difficulty `json:"difficulty"`
	Crossword  crossword.Snapshot   `json:"crossword"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// Store defines the persistence interface for puzzles.
type Store interface {
	// Save inserts or replaces a puzzle by ID.
	Save(ctx context.Context, p Puzzle) error

	// GetAll returns every puzzle, oldest first.
	GetAll(ctx context.Context) ([]Puzzle, error)

	// GetByID returns ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (Puzzle, error)

	// Delete returns ErrNotFound when the id is unknown.
	Delete(ctx context.Context, id string) error
}

// Filter returns the puzzles of one kind and difficulty, keeping order.
// An empty difficulty matches all.
func Filter(all []Puzzle, kind Kind, d crossword.Difficulty) []Puzzle {
	var out []Puzzle
	for _, p := range all {
		if p.Kind == kind && (d == "" || p.Difficulty == d) {
			out = append(out, p)
		}
	}
	return out
}

// sortPuzzles orders by creation time, then id.
func sortPuzzles(ps []Puzzle) {
	slices.SortFunc(ps, func(a, b Puzzle) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
