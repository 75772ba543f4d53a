// internal/crossword/verifier.go
//
// Structural checks run after each word write, and the stock verifiers.

package crossword

// Verifier is the structural check run after every successful word write.
// It must be a pure predicate over the grid; returning false rolls the
// attempt back.
type Verifier interface {
	Verify(g *Grid) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(g *Grid) bool

// Verify calls f(g).
func (f VerifierFunc) Verify(g *Grid) bool { return f(g) }

// AllowAll accepts every grid.
var AllowAll Verifier = VerifierFunc(func(*Grid) bool { return true })

// MaxWords rejects any grid holding more than limit words.
// The count includes the word under attempt.
func MaxWords(limit int) Verifier {
	return VerifierFunc(func(g *Grid) bool { return len(g.texts) <= limit })
}

// All accepts a grid only when every verifier does.
func All(vs ...Verifier) Verifier {
	return VerifierFunc(func(g *Grid) bool {
		for _, v := range vs {
			if !v.Verify(g) {
				return false
			}
		}
		return true
	})
}
