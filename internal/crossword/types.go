// internal/crossword/types.go
//
// Core type definitions for crossword construction.
// Defines:
//   - Cell: one square of the grid (letter, blank or separator) and its reference count.
//   - PlacedWord: a word committed to the grid with its start and orientation.
//   - Difficulty: easy | normal | hard, mapped to lexicon tiers.
//   - Snapshot: the plain data form of a grid used by payloads and persistence.

package crossword

import (
	"fmt"
	"strings"

	"github.com/robalobadob/crossword/internal/lexicon"
)

const (
	// Blank marks an empty cell.
	Blank byte = lexicon.Blank
	// Separator marks the cell just before or after a word along its axis.
	Separator byte = '#'
)

// Cell is one square of the grid.
// Invariant: Answer == Blank iff Refs == 0.
type Cell struct {
	Answer byte // lowercase letter, Blank or Separator
	Refs   int  // number of placements currently claiming this cell
}

// PlacedWord is a word committed to the grid.
// JSON names follow the wordsWithIndex payload the clients already consume.
type PlacedWord struct {
	Text       string `json:"word"`
	Row        int    `json:"i"`
	Col        int    `json:"j"`
	Horizontal bool   `json:"horizontal"`
}

// Difficulty selects which lexicon tiers feed the builder.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// Difficulties lists every level, easiest first.
var Difficulties = []Difficulty{Easy, Normal, Hard}

// ParseDifficulty validates a difficulty name (case-insensitive).
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Normal, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Snapshot is a read-only copy of a grid.
type Snapshot struct {
	Size       int          `json:"size"`
	Difficulty Difficulty   `json:"difficulty,omitempty"`
	Grid       []string     `json:"grid"`
	Words      []PlacedWord `json:"wordsWithIndex"`
}

// WordTexts returns the placed word texts in placement order.
func (s Snapshot) WordTexts() []string {
	out := make([]string, len(s.Words))
	for i, w := range s.Words {
		out[i] = w.Text
	}
	return out
}

// Find returns the placed word with the given text.
func (s Snapshot) Find(text string) (PlacedWord, bool) {
	for _, w := range s.Words {
		if w.Text == text {
			return w, true
		}
	}
	return PlacedWord{}, false
}
