package lexicon

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := FromWords(map[Tier][]string{
		Common:   {"cat", "car", "rat", "tree", "trap", "apple", "appeal", "planet"},
		Uncommon: {"auk", "tarn", "abyss", "zenith"},
	})
	require.NoError(t, err)
	return idx
}

// seqRand returns the queued values in order.
type seqRand struct{ vals []int }

func (s *seqRand) IntN(n int) int {
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

func TestWordsForPattern_BlankWindow(t *testing.T) {
	m := NewMatcher(testIndex(t), rand.New(rand.NewPCG(1, 2)))

	lo, hi := m.BlankWindow(6)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 4, hi)

	// Lengths 3 and 4 only: the 5- and 6-letter words are outside the window.
	got := m.WordsForPattern("      ", Common)
	assert.ElementsMatch(t, []string{"cat", "car", "rat", "tree", "trap"}, got)

	got = m.WordsForPattern("      ", Uncommon)
	assert.ElementsMatch(t, []string{"auk", "tarn"}, got)

	// A line shorter than min+2 has an empty window.
	assert.Empty(t, m.WordsForPattern("    ", Common))
	assert.Empty(t, m.WordsForPattern("", Common))
}

func TestWordsForPattern_Subpatterns(t *testing.T) {
	m := NewMatcher(testIndex(t), rand.New(rand.NewPCG(1, 2)))

	// "ca " matches cat and car at full width; "a " style subpatterns shorter
	// than the minimum are never considered.
	got := m.WordsForPattern("ca ", Common)
	assert.Equal(t, []string{"cat", "car"}, got)

	// A fixed 'p' in the middle of a long line surfaces words of several
	// lengths that contain p somewhere the window allows.
	got = m.WordsForPattern("  pp  ", Common)
	assert.Contains(t, got, "apple")
	assert.NotContains(t, got, "cat")
	// appeal needs p at offsets 1 and 2 of a full-width match.
	assert.NotContains(t, got, "appeal")
	assert.Contains(t, m.WordsForPattern(" pp   ", Common), "appeal")

	// Separators never match a letter.
	assert.Empty(t, m.WordsForPattern("###", Common))
}

func TestWordsForPattern_Deduplicates(t *testing.T) {
	m := NewMatcher(testIndex(t), rand.New(rand.NewPCG(1, 2)))

	// "t   " and " t  " style subpatterns both match several words; each word
	// must appear once.
	got := m.WordsForPattern("t   t", Common)
	seen := map[string]int{}
	for _, w := range got {
		seen[w]++
	}
	for w, n := range seen {
		assert.Equal(t, 1, n, "word %q returned %d times", w, n)
	}
}

func TestAllWordsForPattern_UnionsTiers(t *testing.T) {
	m := NewMatcher(testIndex(t), rand.New(rand.NewPCG(1, 2)))

	got := m.AllWordsForPattern(" a  ")
	assert.Contains(t, got, "tarn")
	assert.Contains(t, got, "cat")
	assert.Contains(t, got, "auk")
}

func TestRandomWord(t *testing.T) {
	m := NewMatcher(testIndex(t), &seqRand{vals: []int{2, 0}})

	words := []string{"cat", "car", "rat"}
	assert.Equal(t, "rat", m.RandomWord(words))
	assert.Equal(t, "cat", m.RandomWord(words))
	assert.Equal(t, "", m.RandomWord(nil))
}

func TestRandomWord_Deterministic(t *testing.T) {
	idx := testIndex(t)
	words := idx.WordsOfLength(3, Common)

	a := NewMatcher(idx, rand.New(rand.NewPCG(7, 7)))
	b := NewMatcher(idx, rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.RandomWord(words), b.RandomWord(words))
	}
}
