// internal/crossword/factory.go
//
// Builder factory. One index is shared read-only; every build gets its own
// grid and PCG random source, seeded at random or from a caller's seed.

package crossword

import (
	"math/rand/v2"

	"github.com/robalobadob/crossword/internal/lexicon"
)

// Factory hands out independent builders over one shared, read-only index.
// Each builder owns its grid and random source, so builds can run in
// parallel.
type Factory struct {
	Index    *lexicon.Index
	Size     int
	Verifier Verifier
}

// New returns a builder with a freshly seeded random source.
func (f Factory) New() *Builder {
	return f.NewSeeded(rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a builder whose choices are fully determined by the seed.
func (f Factory) NewSeeded(seed1, seed2 uint64) *Builder {
	m := lexicon.NewMatcher(f.Index, rand.New(rand.NewPCG(seed1, seed2)))
	return NewBuilder(f.Size, m, f.Verifier)
}
