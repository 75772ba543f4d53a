// internal/session/registry.go
//
// SessionRegistry: the live games of this process.
// Responsibilities:
//   - Creating games (grid built outside any lock, host seated, uuid v7 ids).
//   - Seating and unseating connections; a game ends with its last player.
//   - Lookups by game id and by connection id, and the lobby listing.
//   - One countdown per dynamic game, ticking into the registry's TickFunc.

package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/countdown"
	"github.com/robalobadob/crossword/internal/crossword"
)

// BuildFunc produces the opening grid of a new game.
type BuildFunc func(ctx context.Context, d crossword.Difficulty) (crossword.Snapshot, error)

// TickFunc receives every countdown tick of a dynamic game.
type TickFunc func(sessionID string, remaining int)

// Option configures a Registry.
type Option func(*Registry)

// WithCountdown sets the starting value and tick interval of dynamic games.
func WithCountdown(initial int, interval time.Duration) Option {
	return func(r *Registry) {
		r.initial = initial
		r.interval = interval
	}
}

// WithScheduler is passed through to every countdown.
func WithScheduler(s countdown.Scheduler) Option {
	return func(r *Registry) { r.sched = s }
}

// Registry indexes live sessions by id and by connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byConn   map[string]string

	build    BuildFunc
	onTick   TickFunc
	initial  int
	interval time.Duration
	sched    countdown.Scheduler
	now      func() time.Time
}

// NewRegistry returns an empty registry. onTick may be nil.
func NewRegistry(build BuildFunc, onTick TickFunc, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]string),
		build:    build,
		onTick:   onTick,
		initial:  60,
		interval: time.Second,
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// CreateGame builds a grid and registers a new session with the host seated.
// The build runs in the caller's goroutine without any registry lock held.
// A host already seated elsewhere leaves that game first.
func (r *Registry) CreateGame(ctx context.Context, d crossword.Difficulty, mode Mode, hostName, hostConnID string) (*Session, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	d, err := crossword.ParseDifficulty(string(d))
	if err != nil {
		return nil, err
	}
	snap, err := r.build(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	s := &Session{
		ID:         id.String(),
		Difficulty: d,
		Mode:       mode,
		Host:       strings.TrimSpace(hostName),
		CreatedAt:  r.now(),
		players:    []Player{{ConnID: hostConnID, Name: strings.TrimSpace(hostName)}},
		snapshot:   snap,
		found:      make(map[string]struct{}),
	}
	if mode == Dynamic {
		s.clock = r.newClock(s.ID)
	}

	if _, err := r.FindSessionIDByConnectionID(hostConnID); err == nil {
		r.Leave(hostConnID)
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.byConn[hostConnID] = s.ID
	r.mu.Unlock()

	log.Info().
		Str("session", s.ID).
		Str("conn", hostConnID).
		Str("difficulty", string(d)).
		Str("mode", string(mode)).
		Int("words", len(snap.Words)).
		Msg("game created")
	return s, nil
}

func (r *Registry) newClock(id string) *countdown.Clock {
	emit := func(v int) {
		if r.onTick != nil {
			r.onTick(id, v)
		}
	}
	var opts []countdown.Option
	if r.sched != nil {
		opts = append(opts, countdown.WithScheduler(r.sched))
	}
	return countdown.New(r.initial, r.interval, emit, opts...)
}

// Join seats connID in session id, leaving any other game first.
func (r *Registry) Join(id, connID, name string) (*Session, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if prev, err := r.FindSessionIDByConnectionID(connID); err == nil && prev != id {
		r.Leave(connID)
	}

	// Seat and index under the registry lock so End cannot slip in between.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[id] != s {
		return nil, ErrNotFound
	}
	if err := s.addPlayer(Player{ConnID: connID, Name: strings.TrimSpace(name)}); err != nil {
		return nil, err
	}
	r.byConn[connID] = id
	log.Info().Str("session", id).Str("conn", connID).Msg("player joined")
	return s, nil
}

// Leave unseats connID. The session ends when its last player leaves.
// It returns the session the connection was in.
func (r *Registry) Leave(connID string) (*Session, error) {
	r.mu.Lock()
	id, ok := r.byConn[connID]
	s := r.sessions[id]
	delete(r.byConn, connID)
	r.mu.Unlock()
	if !ok || s == nil {
		return nil, ErrNotFound
	}

	left := s.removePlayer(connID)
	log.Info().Str("session", id).Str("conn", connID).Int("remaining", left).Msg("player left")
	if left == 0 {
		_ = r.End(id)
	}
	return s, nil
}

// End removes the session and stops its clock. Later lookups of id, and
// Updates through handles still held elsewhere, return ErrNotFound.
func (r *Registry) End(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		for conn, sid := range r.byConn {
			if sid == id {
				delete(r.byConn, conn)
			}
		}
	}
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.end()
	log.Info().Str("session", id).Msg("game ended")
	return nil
}

// Get returns the live session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// FindSessionIDByConnectionID returns the game connID is seated in.
func (r *Registry) FindSessionIDByConnectionID(connID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byConn[connID]; ok {
		return id, nil
	}
	return "", ErrNotFound
}

// SessionForConnection combines FindSessionIDByConnectionID and Get.
func (r *Registry) SessionForConnection(connID string) (*Session, error) {
	id, err := r.FindSessionIDByConnectionID(connID)
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}

// List returns the open games, oldest first.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	out := make([]Summary, len(all))
	for i, s := range all {
		out[i] = s.Summary()
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for _, id := range ids {
		_ = r.End(id)
	}
}
