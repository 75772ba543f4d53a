// internal/session/session.go
//
// One multiplayer game: its grid, the words found so far, the players in the
// room and, for dynamic games, the countdown.
//
// Locking: every read-modify-write of the grid and found set happens under
// Session.mu. The countdown has its own mutex and is only ever called with
// Session.mu held or not at all, never the other way round.

package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/crossword/internal/countdown"
	"github.com/robalobadob/crossword/internal/crossword"
)

var (
	// ErrNotFound is returned for unknown or ended sessions and unknown
	// connections. Callers treat it as a no-op.
	ErrNotFound = errors.New("session not found")
	// ErrFull is returned when joining a game that already has every seat taken.
	ErrFull = errors.New("session is full")
)

// MaxPlayers is the number of seats in a game (host + opponent).
const MaxPlayers = 2

// Mode selects whether the unsolved part of the grid regenerates.
type Mode string

const (
	Classic Mode = "classic"
	Dynamic Mode = "dynamic"
)

// ParseMode validates a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Classic, Dynamic:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Player is one connection seated in a game.
type Player struct {
	ConnID string
	Name   string
}

// State is the mutable part of a session handed to Update.
type State struct {
	Difficulty crossword.Difficulty
	Mode       Mode
	Snapshot   crossword.Snapshot
	Found      map[string]struct{}
	Clock      *countdown.Clock // nil for classic games
}

// FoundWords returns the found words as placed on the grid, in grid order.
func (st *State) FoundWords() []crossword.PlacedWord {
	out := make([]crossword.PlacedWord, 0, len(st.Found))
	for _, w := range st.Snapshot.Words {
		if _, ok := st.Found[w.Text]; ok {
			out = append(out, w)
		}
	}
	return out
}

// FoundTexts is FoundWords reduced to the word texts.
func (st *State) FoundTexts() []string {
	fw := st.FoundWords()
	out := make([]string, len(fw))
	for i, w := range fw {
		out[i] = w.Text
	}
	return out
}

// Session is a live game. ID, Difficulty, Mode, Host and CreatedAt never
// change after creation.
type Session struct {
	ID         string
	Difficulty crossword.Difficulty
	Mode       Mode
	Host       string
	CreatedAt  time.Time

	mu       sync.Mutex
	players  []Player
	snapshot crossword.Snapshot
	found    map[string]struct{}
	clock    *countdown.Clock
	ended    bool
}

// View is the payload sent to clients when a game is created or joined.
type View struct {
	ID         string               `json:"gameId"`
	Difficulty crossword.Difficulty `json:"difficulty"`
	Mode       Mode                 `json:"mode"`
	Host       string               `json:"hostName"`
	Players    []string             `json:"players"`
	Crossword  crossword.Snapshot   `json:"crossword"`
	Found      []string             `json:"found"`
	Countdown  int                  `json:"countdown,omitempty"`
}

// Summary is the lobby listing of an open game.
type Summary struct {
	ID         string               `json:"gameId"`
	Difficulty crossword.Difficulty `json:"difficulty"`
	Mode       Mode                 `json:"mode"`
	Host       string               `json:"hostName"`
	Players    int                  `json:"players"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// Update runs fn with the session state under the session lock. Changes fn
// makes to the snapshot or found set are kept only when it returns nil.
// Ended sessions return ErrNotFound without calling fn.
func (s *Session) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrNotFound
	}
	found := make(map[string]struct{}, len(s.found))
	for w := range s.found {
		found[w] = struct{}{}
	}
	st := &State{
		Difficulty: s.Difficulty,
		Mode:       s.Mode,
		Snapshot:   s.snapshot,
		Found:      found,
		Clock:      s.clock,
	}
	if err := fn(st); err != nil {
		return err
	}
	s.snapshot = st.Snapshot
	s.found = st.Found
	return nil
}

// View returns the client payload for the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Snapshot: s.snapshot, Found: s.found}
	v := View{
		ID:         s.ID,
		Difficulty: s.Difficulty,
		Mode:       s.Mode,
		Host:       s.Host,
		Players:    s.playerNamesLocked(),
		Crossword:  s.snapshot,
		Found:      st.FoundTexts(),
	}
	if s.clock != nil {
		v.Countdown = s.clock.Snapshot().Remaining
	}
	return v
}

// Summary returns the lobby entry.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:         s.ID,
		Difficulty: s.Difficulty,
		Mode:       s.Mode,
		Host:       s.Host,
		Players:    len(s.players),
		CreatedAt:  s.CreatedAt,
	}
}

// Players returns the seated players in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Player(nil), s.players...)
}

// StartClock starts the countdown of a dynamic game. False for classic games,
// ended sessions and clocks already started.
func (s *Session) StartClock() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.clock == nil {
		return false
	}
	return s.clock.Start()
}

// SetCountdown changes the initial countdown and restarts it. Only dynamic
// games have a countdown; false otherwise.
func (s *Session) SetCountdown(initial int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.clock == nil {
		return false
	}
	s.clock.SetInitial(initial)
	s.clock.Reset()
	return true
}

// Ended reports whether the session is over.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) addPlayer(p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrNotFound
	}
	for _, q := range s.players {
		if q.ConnID == p.ConnID {
			return nil
		}
	}
	if len(s.players) >= MaxPlayers {
		return ErrFull
	}
	s.players = append(s.players, p)
	return nil
}

// removePlayer drops connID and returns how many players remain.
func (s *Session) removePlayer(connID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.players {
		if p.ConnID == connID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			break
		}
	}
	return len(s.players)
}

// end marks the session over and stops its clock. Idempotent.
func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	if s.clock != nil {
		s.clock.Close()
	}
}

func (s *Session) playerNamesLocked() []string {
	out := make([]string, len(s.players))
	for i, p := range s.players {
		out[i] = p.Name
	}
	return out
}
