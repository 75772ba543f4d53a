// internal/crossword/builder.go
//
// Backtracking crossword builder.
// Responsibilities:
//   - Place a word transactionally: checkpoint, separators, letters, verify, commit.
//     Any failure restores the checkpoint so a rejected attempt leaves no trace.
//   - Pick a candidate for a row or column and slide it to the offset that
//     overlaps the most fixed letters.
//   - Sweep the grid until a full pass places nothing (fixed point).
//   - Rebuild around a skeleton of seed words (dynamic mode mutations).
//
// Completion is best effort: lines with no fitting candidate stay empty.
// A Builder is not safe for concurrent use; create one per build.

package crossword

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/lexicon"
)

// Candidates supplies words for a line pattern. *lexicon.Matcher implements it.
type Candidates interface {
	WordsForPattern(pattern string, tier lexicon.Tier) []string
	AllWordsForPattern(pattern string) []string
	RandomWord(words []string) string
}

// Stats describes one Build run.
type Stats struct {
	Sweeps   int
	Placed   int
	Duration time.Duration
}

// Builder fills a Grid with words from a Candidates source.
type Builder struct {
	grid     *Grid
	words    Candidates
	verifier Verifier
}

// NewBuilder returns a builder over an empty size×size grid.
// A nil verifier accepts everything.
func NewBuilder(size int, words Candidates, v Verifier) *Builder {
	if v == nil {
		v = AllowAll
	}
	return &Builder{grid: NewGrid(size), words: words, verifier: v}
}

// Grid exposes the grid under construction.
func (b *Builder) Grid() *Grid { return b.grid }

// Reset empties the grid.
func (b *Builder) Reset() {
	b.grid.reset()
	b.grid.save()
}

// AddWord places word starting at (row, col). It returns false and leaves the
// grid exactly as it was when the word is a duplicate, runs out of bounds,
// conflicts with a letter already on the grid, or fails verification.
func (b *Builder) AddWord(row, col int, word string, horizontal bool) bool {
	g := b.grid
	if !isWord(word) || g.Has(word) {
		return false
	}

	g.save()
	if !b.writeSeparators(row, col, len(word), horizontal) {
		g.restore()
		return false
	}
	r, c := row, col
	for i := 0; i < len(word); i++ {
		if !g.write(r, c, word[i]) {
			g.restore()
			return false
		}
		if horizontal {
			c++
		} else {
			r++
		}
	}
	g.texts[word] = struct{}{}
	if !b.verifier.Verify(g) {
		g.restore()
		return false
	}

	g.words = append(g.words, PlacedWord{Text: word, Row: row, Col: col, Horizontal: horizontal})
	return true
}

// writeSeparators claims the cells just before and after the word along its
// axis, when those cells exist.
func (b *Builder) writeSeparators(row, col, n int, horizontal bool) bool {
	g := b.grid
	if horizontal {
		if col > 0 && !g.write(row, col-1, Separator) {
			return false
		}
		if col+n < g.size && !g.write(row, col+n, Separator) {
			return false
		}
		return true
	}
	if row > 0 && !g.write(row-1, col, Separator) {
		return false
	}
	if row+n < g.size && !g.write(row+n, col, Separator) {
		return false
	}
	return true
}

// BestInsertionOffset returns the offset in pattern where word matches the
// most fixed letters. Ties go to the lowest offset; 0 when nothing matches.
func BestInsertionOffset(word, pattern string) int {
	best, bestScore := 0, 0
	for off := 0; off+len(word) <= len(pattern); off++ {
		score := 0
		for i := 0; i < len(word); i++ {
			if word[i] == pattern[off+i] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = off, score
		}
	}
	return best
}

// FillLine tries to place one random candidate on row index (horizontal) or
// column index (vertical).
func (b *Builder) FillLine(index int, horizontal bool, d Difficulty) bool {
	pattern := b.grid.Pattern(index, horizontal)
	candidates := b.candidates(pattern, d)
	if len(candidates) == 0 {
		return false
	}
	word := b.words.RandomWord(candidates)
	off := BestInsertionOffset(word, pattern)
	if horizontal {
		return b.AddWord(index, off, word, true)
	}
	return b.AddWord(off, index, word, false)
}

// candidates maps the difficulty to lexicon tiers: easy → common,
// normal → both, hard → uncommon.
func (b *Builder) candidates(pattern string, d Difficulty) []string {
	switch d {
	case Easy:
		return b.words.WordsForPattern(pattern, lexicon.Common)
	case Normal:
		return b.words.AllWordsForPattern(pattern)
	case Hard:
		return b.words.WordsForPattern(pattern, lexicon.Uncommon)
	}
	return nil
}

// Build sweeps the grid, one horizontal attempt on row i and one vertical
// attempt on column N-1-i per step, until a whole sweep places nothing.
// It only fails when ctx is done.
func (b *Builder) Build(ctx context.Context, d Difficulty) (Stats, error) {
	start := time.Now()
	n := b.grid.size
	var st Stats
	for {
		st.Sweeps++
		placed := 0
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				st.Placed += placed
				st.Duration = time.Since(start)
				return st, err
			}
			if b.FillLine(i, true, d) {
				placed++
			}
			if b.FillLine(n-1-i, false, d) {
				placed++
			}
		}
		st.Placed += placed
		if placed == 0 {
			break
		}
	}
	st.Duration = time.Since(start)
	log.Debug().
		Str("difficulty", string(d)).
		Int("sweeps", st.Sweeps).
		Int("placed", st.Placed).
		Dur("took", st.Duration).
		Msg("grid built")
	return st, nil
}

// NewCrossword empties the grid and builds a fresh puzzle.
func (b *Builder) NewCrossword(ctx context.Context, d Difficulty) (Snapshot, Stats, error) {
	b.Reset()
	st, err := b.Build(ctx, d)
	return b.grid.Snapshot(d), st, err
}

// Mutate empties the grid, replays seeds in order (skipping any that no longer
// fit) and builds around them. Seeds keep their coordinates and orientation.
func (b *Builder) Mutate(ctx context.Context, d Difficulty, seeds []PlacedWord) (Snapshot, Stats, error) {
	b.Reset()
	for _, w := range seeds {
		if !b.AddWord(w.Row, w.Col, w.Text, w.Horizontal) {
			log.Debug().Str("word", w.Text).Msg("seed word skipped")
		}
	}
	st, err := b.Build(ctx, d)
	return b.grid.Snapshot(d), st, err
}

// isWord reports whether w is a non-empty run of lowercase letters.
func isWord(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}
