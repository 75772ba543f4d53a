// internal/crossword/render.go
//
// Plain text form of a grid, used by the CLI and golden tests.

package crossword

import (
	"fmt"
	"io"
	"strings"
)

// String draws the grid one row per line, blanks as '.'.
func (g *Grid) String() string {
	var b strings.Builder
	_ = g.Render(&b)
	return b.String()
}

// Render writes the grid followed by its word list.
//
//	cat#......
//	...
//
//	(0,0) across cat
func (g *Grid) Render(w io.Writer) error {
	for _, row := range g.Rows() {
		if _, err := fmt.Fprintln(w, strings.ReplaceAll(row, string(Blank), ".")); err != nil {
			return err
		}
	}
	if len(g.words) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, pw := range g.words {
		dir := "down"
		if pw.Horizontal {
			dir = "across"
		}
		if _, err := fmt.Fprintf(w, "(%d,%d) %s %s\n", pw.Row, pw.Col, dir, pw.Text); err != nil {
			return err
		}
	}
	return nil
}
