package crossword

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/internal/lexicon"
)

// gridState is everything a rejected attempt must leave untouched.
type gridState struct {
	cells [][]Cell
	words []PlacedWord
	texts map[string]struct{}
}

func stateOf(g *Grid) gridState {
	return gridState{cells: copyCells(g.cells), words: g.Words(), texts: copyTexts(g.texts)}
}

func embeddedMatcher(t *testing.T, seed uint64) *lexicon.Matcher {
	t.Helper()
	idx, err := lexicon.LoadEmbedded()
	require.NoError(t, err)
	return lexicon.NewMatcher(idx, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// stubWords offers the same fixed list for every pattern and records which
// lookups were made.
type stubWords struct {
	list  []string
	calls []string
}

func (s *stubWords) WordsForPattern(_ string, tier lexicon.Tier) []string {
	s.calls = append(s.calls, string(tier))
	return s.list
}

func (s *stubWords) AllWordsForPattern(string) []string {
	s.calls = append(s.calls, "all")
	return s.list
}

func (s *stubWords) RandomWord(words []string) string { return words[0] }

func TestAddWord_WritesLettersAndSeparators(t *testing.T) {
	b := NewBuilder(10, nil, nil)

	require.True(t, b.AddWord(0, 0, "appeal", true))

	g := b.Grid()
	assert.Equal(t, "appeal#   ", g.Pattern(0, true))
	for col := 0; col < 7; col++ {
		c, ok := g.Cell(0, col)
		require.True(t, ok)
		assert.Equal(t, 1, c.Refs, "col %d", col)
	}
	c, _ := g.Cell(0, 7)
	assert.Equal(t, Cell{Answer: Blank}, c)
	assert.Equal(t, []PlacedWord{{Text: "appeal", Row: 0, Col: 0, Horizontal: true}}, g.Words())
	assert.True(t, g.Has("appeal"))
}

func TestAddWord_Vertical(t *testing.T) {
	b := NewBuilder(5, nil, nil)

	require.True(t, b.AddWord(1, 2, "owl", false))

	g := b.Grid()
	assert.Equal(t, "#owl#", g.Pattern(2, false))
	assert.Equal(t, "  #  ", g.Pattern(0, true))
}

func TestAddWord_RollbackExactness(t *testing.T) {
	cases := []struct {
		name       string
		row, col   int
		word       string
		horizontal bool
		verifier   Verifier
	}{
		{name: "duplicate", row: 5, col: 0, word: "appeal", horizontal: true},
		{name: "runs off the right edge", row: 5, col: 5, word: "appendix", horizontal: true},
		{name: "runs off the bottom", row: 8, col: 8, word: "owl", horizontal: false},
		{name: "negative start", row: -1, col: 0, word: "owl", horizontal: true},
		{name: "letter conflict after separator write", row: 0, col: 2, word: "tax", horizontal: false},
		{name: "letter conflict mid word", row: 0, col: 0, word: "appear", horizontal: true},
		{name: "separator over a letter", row: 1, col: 0, word: "cat", horizontal: false},
		{name: "verifier rejects", row: 5, col: 0, word: "owl", horizontal: true, verifier: MaxWords(1)},
		{name: "not a word", row: 5, col: 0, word: "o#l", horizontal: true},
		{name: "empty", row: 5, col: 0, word: "", horizontal: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(10, nil, tc.verifier)
			require.True(t, b.AddWord(0, 0, "appeal", true))
			before := stateOf(b.Grid())

			assert.False(t, b.AddWord(tc.row, tc.col, tc.word, tc.horizontal))
			assert.Equal(t, before, stateOf(b.Grid()))
		})
	}
}

func TestAddWord_SharedSeparatorAndCrossing(t *testing.T) {
	// Scenario on a 10×10 grid. "rat" ends on (0,9) and a vertical "tax"
	// crosses it, landing its x on the last letter of "appendix".
	b := NewBuilder(10, nil, nil)
	require.True(t, b.AddWord(0, 0, "appeal", true))
	require.True(t, b.AddWord(2, 2, "appendix", true))

	// Starting "rat" on (0,9) runs off a 10-wide grid.
	before := stateOf(b.Grid())
	assert.False(t, b.AddWord(0, 9, "rat", true))
	assert.Equal(t, before, stateOf(b.Grid()))

	require.True(t, b.AddWord(0, 7, "rat", true))
	require.True(t, b.AddWord(0, 9, "tax", false))

	g := b.Grid()
	origin, _ := g.Cell(0, 0)
	assert.Equal(t, 1, origin.Refs, "(0,0) belongs to appeal only")
	corner, _ := g.Cell(0, 9)
	assert.Equal(t, byte('t'), corner.Answer)
	assert.Equal(t, 2, corner.Refs, "(0,9) belongs to rat and tax")
	sep, _ := g.Cell(0, 6)
	assert.Equal(t, Cell{Answer: Separator, Refs: 2}, sep, "appeal and rat share a separator")
	x, _ := g.Cell(2, 9)
	assert.Equal(t, Cell{Answer: 'x', Refs: 2}, x)
}

func TestAddWord_UniqueCountMatchesSuccesses(t *testing.T) {
	b := NewBuilder(10, nil, nil)
	attempts := []PlacedWord{
		{Text: "appeal", Row: 0, Col: 0, Horizontal: true},
		{Text: "appeal", Row: 4, Col: 0, Horizontal: true},
		{Text: "owl", Row: 4, Col: 0, Horizontal: true},
		{Text: "owl", Row: 6, Col: 0, Horizontal: true},
		{Text: "ape", Row: 0, Col: 0, Horizontal: false},
		{Text: "zoo", Row: 9, Col: 8, Horizontal: true},
	}
	ok := 0
	for _, a := range attempts {
		if b.AddWord(a.Row, a.Col, a.Text, a.Horizontal) {
			ok++
		}
	}
	assert.Equal(t, 3, ok)
	assert.Len(t, b.Grid().Words(), ok)
	assert.Len(t, b.Grid().texts, ok)
}

func TestBestInsertionOffset(t *testing.T) {
	cases := []struct {
		word, pattern string
		want          int
	}{
		{"appeal", "  pp  ", 0},
		{"appeal", "   pp     ", 2},
		{"ab", " a  a ", 1},      // tie between 1 and 4
		{"cat", "          ", 0}, // nothing fixed
		{"cat", "###       ", 0}, // separators never score
		{"owl", "owl", 0},
		{"toolong", "abc", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BestInsertionOffset(tc.word, tc.pattern), "%q in %q", tc.word, tc.pattern)
	}
}

func TestFillLine_DifficultyTiers(t *testing.T) {
	cases := map[Difficulty]string{
		Easy:   string(lexicon.Common),
		Normal: "all",
		Hard:   string(lexicon.Uncommon),
	}
	for d, want := range cases {
		words := &stubWords{list: []string{"cat"}}
		b := NewBuilder(10, words, nil)

		assert.True(t, b.FillLine(3, true, d))
		assert.Equal(t, []string{want}, words.calls)
		assert.Equal(t, []PlacedWord{{Text: "cat", Row: 3, Col: 0, Horizontal: true}}, b.Grid().Words())
	}
}

func TestFillLine_NoCandidates(t *testing.T) {
	b := NewBuilder(10, &stubWords{}, nil)
	assert.False(t, b.FillLine(0, true, Easy))
	assert.False(t, b.FillLine(0, false, Difficulty("impossible")))
	assert.Empty(t, b.Grid().Words())
}

func TestFillLine_VerticalUsesBestOffset(t *testing.T) {
	words := &stubWords{list: []string{"tax"}}
	b := NewBuilder(10, words, nil)
	require.True(t, b.AddWord(4, 0, "rat", true))

	// Column 2 reads "    t     "; tax lines up its t on row 4.
	require.True(t, b.FillLine(2, false, Easy))
	assert.Contains(t, b.Grid().Words(), PlacedWord{Text: "tax", Row: 4, Col: 2, Horizontal: false})
}

func TestBuild_StopsAtFixedPoint(t *testing.T) {
	words := &stubWords{list: []string{"cat"}}
	b := NewBuilder(10, words, nil)

	st, err := b.Build(context.Background(), Easy)
	require.NoError(t, err)

	// Sweep one places cat on row 0; every later attempt is a duplicate, so
	// sweep two places nothing and ends the build.
	assert.Equal(t, 2, st.Sweeps)
	assert.Equal(t, 1, st.Placed)
	assert.Len(t, words.calls, 2*2*10)
}

func TestBuild_EmbeddedLexicon(t *testing.T) {
	for _, d := range Difficulties {
		t.Run(string(d), func(t *testing.T) {
			b := NewBuilder(10, embeddedMatcher(t, 42), nil)

			snap, st, err := b.NewCrossword(context.Background(), d)
			require.NoError(t, err)

			assert.Positive(t, st.Placed)
			assert.GreaterOrEqual(t, st.Sweeps, 2)
			assert.Len(t, snap.Words, st.Placed)
			assert.Len(t, b.Grid().texts, st.Placed)
			assert.Equal(t, d, snap.Difficulty)
			assert.Len(t, snap.Grid, 10)
			assertConsistent(t, b.Grid())
		})
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(10, embeddedMatcher(t, 1), nil)
	_, err := b.Build(ctx, Normal)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.Grid().Words())
}

func TestMutate_PreservesSkeleton(t *testing.T) {
	seeds := []PlacedWord{
		{Text: "appeal", Row: 0, Col: 0, Horizontal: true},
		{Text: "appendix", Row: 2, Col: 2, Horizontal: true},
		{Text: "tax", Row: 0, Col: 9, Horizontal: false},
	}
	for seed := uint64(0); seed < 5; seed++ {
		b := NewBuilder(10, embeddedMatcher(t, seed), nil)
		// Leave something on the grid to prove Mutate starts from empty.
		require.True(t, b.AddWord(9, 0, "zoo", true))

		snap, _, err := b.Mutate(context.Background(), Easy, seeds)
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(snap.Words), len(seeds))
		assert.Equal(t, seeds, snap.Words[:len(seeds)])
		assertConsistent(t, b.Grid())
	}
}

func TestMutate_SkipsSeedsThatNoLongerFit(t *testing.T) {
	b := NewBuilder(10, &stubWords{}, nil)
	seeds := []PlacedWord{
		{Text: "appeal", Row: 0, Col: 0, Horizontal: true},
		{Text: "tax", Row: 0, Col: 2, Horizontal: false}, // conflicts with the p
		{Text: "owl", Row: 5, Col: 5, Horizontal: true},
	}

	snap, _, err := b.Mutate(context.Background(), Hard, seeds)
	require.NoError(t, err)
	assert.Equal(t, []string{"appeal", "owl"}, snap.WordTexts())
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Hard ")
	require.NoError(t, err)
	assert.Equal(t, Hard, d)

	_, err = ParseDifficulty("expert")
	assert.Error(t, err)
}

// assertConsistent checks the cell invariants and that every placed word is
// spelled out on the grid where it claims to be.
func assertConsistent(t *testing.T, g *Grid) {
	t.Helper()
	for r := 0; r < g.Size(); r++ {
		for c := 0; c < g.Size(); c++ {
			cell, _ := g.Cell(r, c)
			assert.Equal(t, cell.Answer == Blank, cell.Refs == 0, "cell (%d,%d) = %+v", r, c, cell)
		}
	}
	for _, w := range g.Words() {
		for i := 0; i < len(w.Text); i++ {
			r, c := w.Row, w.Col+i
			if !w.Horizontal {
				r, c = w.Row+i, w.Col
			}
			cell, ok := g.Cell(r, c)
			require.True(t, ok)
			assert.Equal(t, w.Text[i], cell.Answer, "%s letter %d", w.Text, i)
		}
	}
}
