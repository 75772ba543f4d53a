// internal/crossword/grid.go
//
// Grid storage and the single-level checkpoint used to undo a word attempt.
//
// A Grid is not safe for concurrent use. Callers that share one (a game
// session) serialize access themselves.

package crossword

import "strings"

// Grid is an N×N board of cells plus the words committed to it.
type Grid struct {
	size  int
	cells [][]Cell
	words []PlacedWord
	texts map[string]struct{}

	// one retained snapshot, overwritten on every attempt
	saved struct {
		cells [][]Cell
		texts map[string]struct{}
	}
}

// NewGrid returns an empty size×size grid.
func NewGrid(size int) *Grid {
	g := &Grid{size: size}
	g.reset()
	g.save()
	return g
}

// Size is the grid side length.
func (g *Grid) Size() int { return g.size }

// Cell returns the cell at (row, col); ok is false when out of bounds.
func (g *Grid) Cell(row, col int) (c Cell, ok bool) {
	if g.outOfBounds(row, col) {
		return Cell{}, false
	}
	return g.cells[row][col], true
}

// Words returns a copy of the committed words in placement order.
func (g *Grid) Words() []PlacedWord {
	out := make([]PlacedWord, len(g.words))
	copy(out, g.words)
	return out
}

// Has reports whether text is already in the placed set.
func (g *Grid) Has(text string) bool {
	_, ok := g.texts[text]
	return ok
}

// Pattern returns row index (horizontal) or column index (vertical) as a string.
func (g *Grid) Pattern(index int, horizontal bool) string {
	var b strings.Builder
	b.Grow(g.size)
	for k := 0; k < g.size; k++ {
		if horizontal {
			b.WriteByte(g.cells[index][k].Answer)
		} else {
			b.WriteByte(g.cells[k][index].Answer)
		}
	}
	return b.String()
}

// Rows returns each row as a string.
func (g *Grid) Rows() []string {
	out := make([]string, g.size)
	for i := range out {
		out[i] = g.Pattern(i, true)
	}
	return out
}

// Snapshot copies the grid into its plain data form.
func (g *Grid) Snapshot(d Difficulty) Snapshot {
	return Snapshot{Size: g.size, Difficulty: d, Grid: g.Rows(), Words: g.Words()}
}

// Clone returns a deep copy, checkpoint included.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		size:  g.size,
		cells: copyCells(g.cells),
		words: g.Words(),
		texts: copyTexts(g.texts),
	}
	c.saved.cells = copyCells(g.saved.cells)
	c.saved.texts = copyTexts(g.saved.texts)
	return c
}

// --------------------------- internal mutation -----------------------------

func (g *Grid) reset() {
	g.cells = make([][]Cell, g.size)
	for i := range g.cells {
		row := make([]Cell, g.size)
		for j := range row {
			row[j].Answer = Blank
		}
		g.cells[i] = row
	}
	g.words = nil
	g.texts = make(map[string]struct{})
}

// save overwrites the checkpoint with the current cells and text set.
func (g *Grid) save() {
	g.saved.cells = copyCells(g.cells)
	g.saved.texts = copyTexts(g.texts)
}

// restore rolls cells and text set back to the checkpoint.
func (g *Grid) restore() {
	g.cells = copyCells(g.saved.cells)
	g.texts = copyTexts(g.saved.texts)
}

// write claims (row, col) for letter. It fails when out of bounds or when the
// cell already holds something else.
func (g *Grid) write(row, col int, letter byte) bool {
	if g.outOfBounds(row, col) {
		return false
	}
	c := &g.cells[row][col]
	if c.Answer != Blank && c.Answer != letter {
		return false
	}
	c.Answer = letter
	c.Refs++
	return true
}

func (g *Grid) outOfBounds(row, col int) bool {
	return row < 0 || row >= g.size || col < 0 || col >= g.size
}

func copyCells(src [][]Cell) [][]Cell {
	out := make([][]Cell, len(src))
	for i, row := range src {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

func copyTexts(src map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}
