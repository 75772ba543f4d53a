// internal/lexicon/matcher.go
//
// Candidate lookup for a partially filled crossword line.
//
// A pattern is the current content of a row or column: letters, blanks (' ')
// and separators ('#'). Matching is done on every contiguous subpattern of at
// least MinWordLength characters so that words overlapping only part of the
// fixed letters still surface; the grid builder enforces the exact fit.

package lexicon

// Blank is the placeholder character for an empty cell in a pattern.
const Blank = ' '

// Rand is the random source used to pick candidates.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Matcher answers pattern queries against an Index.
// A Matcher is not safe for concurrent use when its Rand is not.
type Matcher struct {
	idx *Index
	rnd Rand
}

// NewMatcher returns a Matcher over idx using rnd for random picks.
func NewMatcher(idx *Index, rnd Rand) *Matcher {
	return &Matcher{idx: idx, rnd: rnd}
}

// WordsForPattern returns the candidate words of tier for pattern.
//
// An all-blank pattern yields every word whose length falls in BlankWindow.
// Otherwise the result is the de-duplicated union of matches for every
// non-blank subpattern, in first-seen order.
func (m *Matcher) WordsForPattern(pattern string, tier Tier) []string {
	if isBlank(pattern) {
		lo, hi := m.BlankWindow(len(pattern))
		var out []string
		for n := lo; n <= hi; n++ {
			out = append(out, m.idx.WordsOfLength(n, tier)...)
		}
		return out
	}

	seen := make(map[string]struct{})
	var out []string
	for _, sub := range m.subpatterns(pattern) {
		for _, w := range m.idx.WordsOfLength(len(sub), tier) {
			if _, ok := seen[w]; ok || !matches(sub, w) {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// AllWordsForPattern unions the common and uncommon candidates.
func (m *Matcher) AllWordsForPattern(pattern string) []string {
	return append(m.WordsForPattern(pattern, Common), m.WordsForPattern(pattern, Uncommon)...)
}

// RandomWord picks a word uniformly from words, or "" when words is empty.
func (m *Matcher) RandomWord(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[m.rnd.IntN(len(words))]
}

// BlankWindow returns the inclusive word length range offered for an
// all-blank line of length n: MinWordLength through n-2. hi < lo means the
// window is empty.
//
// The upper bound excludes n-1 and n; TestWordsForPattern_BlankWindow pins it.
func (m *Matcher) BlankWindow(n int) (lo, hi int) {
	return m.idx.minLen, n - 2
}

// subpatterns lists the distinct non-blank substrings of pattern with length
// >= MinWordLength, shortest first, then by offset.
func (m *Matcher) subpatterns(pattern string) []string {
	seen := make(map[string]struct{})
	var out []string
	for length := m.idx.minLen; length <= len(pattern); length++ {
		for start := 0; start+length <= len(pattern); start++ {
			sub := pattern[start : start+length]
			if isBlank(sub) {
				continue
			}
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			out = append(out, sub)
		}
	}
	return out
}

// matches reports whether word fits sub letter for letter, blanks matching anything.
func matches(sub, word string) bool {
	if len(sub) != len(word) {
		return false
	}
	for i := 0; i < len(sub); i++ {
		if sub[i] != Blank && sub[i] != word[i] {
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != Blank {
			return false
		}
	}
	return true
}
