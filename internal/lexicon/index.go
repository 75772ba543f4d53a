// internal/lexicon/index.go
//
// Word lookup by length and frequency tier.
//
// Responsibilities:
//   - Hold the loaded lexicon, grouped tier → length → words.
//   - Answer WordsOfLength queries for the pattern matcher.
//   - Report counts for diagnostics.
//
// An Index is immutable once built and safe to share between goroutines.
// It is constructed explicitly (see load.go) and passed by reference to every
// builder; there is no package-level instance.

package lexicon

import "sort"

// Tier is the frequency classification of a lexicon word.
type Tier string

const (
	Common   Tier = "common"
	Uncommon Tier = "uncommon"
)

// Tiers lists the known tiers in lookup order.
var Tiers = []Tier{Common, Uncommon}

// DefaultMinWordLength is the shortest word the matcher will propose.
const DefaultMinWordLength = 3

// Entry is a single lexicon word.
type Entry struct {
	Word   string `json:"word"`
	Length int    `json:"length"`
	Tier   Tier   `json:"tier"`
}

// Index maps tier → length → words.
type Index struct {
	byTier map[Tier]map[int][]string
	minLen int
}

// WordsOfLength returns the words of the given length and tier.
// The returned slice is shared and must not be modified.
func (x *Index) WordsOfLength(length int, tier Tier) []string {
	return x.byTier[tier][length]
}

// MinWordLength is the configured minimum word length.
func (x *Index) MinWordLength() int { return x.minLen }

// MaxWordLength returns the longest word length present in any tier.
func (x *Index) MaxWordLength() int {
	longest := 0
	for _, byLen := range x.byTier {
		for n := range byLen {
			if n > longest {
				longest = n
			}
		}
	}
	return longest
}

// Entries returns every word as an Entry, ordered by tier, length, then word.
func (x *Index) Entries() []Entry {
	var out []Entry
	for _, tier := range Tiers {
		lengths := make([]int, 0, len(x.byTier[tier]))
		for n := range x.byTier[tier] {
			lengths = append(lengths, n)
		}
		sort.Ints(lengths)
		for _, n := range lengths {
			for _, w := range x.byTier[tier][n] {
				out = append(out, Entry{Word: w, Length: n, Tier: tier})
			}
		}
	}
	return out
}

// Stats returns the number of words per tier.
func (x *Index) Stats() map[Tier]int {
	out := make(map[Tier]int, len(Tiers))
	for _, tier := range Tiers {
		total := 0
		for _, words := range x.byTier[tier] {
			total += len(words)
		}
		out[tier] = total
	}
	return out
}
