// internal/mutation/engine.go
//
// Dynamic-mode mechanics: remember which words a session has found and
// regenerate everything else around them.
//
// Every regeneration reseeds the builder with the found words at their
// original coordinates and fills the rest of the grid from scratch, so the
// unsolved part of the puzzle changes after every find.

package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/session"
)

var (
	// ErrUnknownWord is returned when a found word is not on the session grid.
	ErrUnknownWord = errors.New("word is not on the grid")
	// ErrSeedLost is returned when a found word could not be replayed into
	// the rebuilt grid. The session keeps its current grid.
	ErrSeedLost = errors.New("found word did not fit the rebuilt grid")
)

// Sessions looks up live sessions. *session.Registry implements it.
type Sessions interface {
	Get(id string) (*session.Session, error)
}

// Mutation is the payload of an "update mutation" event.
type Mutation struct {
	Crossword crossword.Snapshot `json:"crossword"`
	Found     []string           `json:"found"`
}

// Engine applies found words and mutations to sessions.
type Engine struct {
	sessions   Sessions
	newBuilder func() *crossword.Builder
}

// NewEngine returns an engine that takes a fresh builder for every mutation.
func NewEngine(sessions Sessions, newBuilder func() *crossword.Builder) *Engine {
	return &Engine{sessions: sessions, newBuilder: newBuilder}
}

// FoundWord marks word found in the session and restarts its countdown.
// Marking a word twice changes nothing beyond the countdown restart.
func (e *Engine) FoundWord(sessionID, word string) error {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	word = strings.ToLower(strings.TrimSpace(word))
	return s.Update(func(st *session.State) error {
		if _, ok := st.Snapshot.Find(word); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWord, word)
		}
		st.Found[word] = struct{}{}
		if st.Clock != nil {
			st.Clock.Reset()
		}
		return nil
	})
}

// NextMutation rebuilds the session grid around its found words and makes the
// result the session's current grid.
func (e *Engine) NextMutation(ctx context.Context, sessionID string) (Mutation, error) {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return Mutation{}, err
	}

	var m Mutation
	err = s.Update(func(st *session.State) error {
		seeds := st.FoundWords()
		snap, stats, err := e.newBuilder().Mutate(ctx, st.Difficulty, seeds)
		if err != nil {
			return fmt.Errorf("mutate: %w", err)
		}

		// found words never go back to unfound, so every seed must survive
		for _, w := range seeds {
			if got, ok := snap.Find(w.Text); !ok || got != w {
				return fmt.Errorf("%w: %q", ErrSeedLost, w.Text)
			}
		}
		st.Snapshot = snap

		m = Mutation{Crossword: snap, Found: st.FoundTexts()}
		log.Debug().
			Str("session", sessionID).
			Int("seeds", len(seeds)).
			Int("placed", stats.Placed).
			Msg("grid mutated")
		return nil
	})
	return m, err
}
