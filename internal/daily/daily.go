// internal/daily/daily.go
//
// Daily puzzle: one grid per UTC date and difficulty, the same for every
// player. The builder's random source is seeded from HMAC(salt, date|level),
// so the grid can be rebuilt from scratch on any instance; the store only
// caches it.

package daily

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/store"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic PCG seed for a date and difficulty using
// HMAC-SHA256(salt, "YYYY-MM-DD|difficulty").
func Seed(date time.Time, d crossword.Difficulty, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date) + "|" + string(d)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// PuzzleID is the store id of the daily puzzle.
func PuzzleID(date time.Time, d crossword.Difficulty) string {
	return fmt.Sprintf("daily-%s-%s", DateKey(date), d)
}

// BuilderFunc returns a builder driven only by the given seed.
type BuilderFunc func(seed1, seed2 uint64) *crossword.Builder

// Service builds and caches daily puzzles.
type Service struct {
	store      store.Store
	newBuilder BuilderFunc
	salt       string

	mu sync.Mutex // one build per id at a time
}

// NewService returns a daily puzzle service.
func NewService(st store.Store, newBuilder BuilderFunc, salt string) *Service {
	return &Service{store: st, newBuilder: newBuilder, salt: salt}
}

// Get returns the puzzle for date and d, building and storing it on first use.
func (s *Service) Get(ctx context.Context, date time.Time, d crossword.Difficulty) (store.Puzzle, error) {
	id := PuzzleID(date, d)
	if p, err := s.store.GetByID(ctx, id); err == nil {
		return p, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Puzzle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// someone else may have built it while we waited
	if p, err := s.store.GetByID(ctx, id); err == nil {
		return p, nil
	}

	snap, err := s.Build(ctx, date, d)
	if err != nil {
		return store.Puzzle{}, err
	}
	p := store.Puzzle{
		ID:         id,
		Kind:       store.KindDaily,
		Difficulty: d,
		Crossword:  snap,
		CreatedAt:  time.Now(),
	}
	if err := s.store.Save(ctx, p); err != nil {
		return store.Puzzle{}, fmt.Errorf("save daily puzzle: %w", err)
	}
	log.Info().Str("id", id).Int("words", len(snap.Words)).Msg("daily puzzle built")
	return p, nil
}

// Build rebuilds the daily grid without touching the store.
func (s *Service) Build(ctx context.Context, date time.Time, d crossword.Difficulty) (crossword.Snapshot, error) {
	s1, s2 := Seed(date, d, s.salt)
	snap, _, err := s.newBuilder(s1, s2).NewCrossword(ctx, d)
	return snap, err
}
