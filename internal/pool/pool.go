// internal/pool/pool.go
//
// Pre-generated puzzles, so single-player requests do not wait for a build.
//
// The pool keeps up to Size stored puzzles per difficulty. Take hands out the
// oldest one, deletes it and tops the pool back up in the background. When
// the pool is empty Take builds a puzzle on the spot.

package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/store"
)

// Generator builds one puzzle.
type Generator func(ctx context.Context, d crossword.Difficulty) (crossword.Snapshot, error)

// Pool is safe for concurrent use.
type Pool struct {
	store   store.Store
	gen     Generator
	size    int
	timeout time.Duration

	mu     sync.Mutex // serializes Take so two callers never get the same puzzle
	fillMu sync.Mutex // one top-up at a time
	wg     sync.WaitGroup

	// background builds derive from ctx; Close cancels it
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a pool of size puzzles per difficulty. timeout bounds each
// background build.
func New(st store.Store, gen Generator, size int, timeout time.Duration) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{store: st, gen: gen, size: size, timeout: timeout, ctx: ctx, cancel: cancel}
}

// Fill tops up every difficulty to the pool size.
func (p *Pool) Fill(ctx context.Context) error {
	p.fillMu.Lock()
	defer p.fillMu.Unlock()
	for _, d := range crossword.Difficulties {
		n, err := p.Count(ctx, d)
		if err != nil {
			return err
		}
		for ; n < p.size; n++ {
			if err := p.add(ctx, d); err != nil {
				return fmt.Errorf("fill %s: %w", d, err)
			}
		}
		log.Info().Str("difficulty", string(d)).Int("stored", n).Msg("puzzle pool ready")
	}
	return nil
}

// Count is the number of stored puzzles for d.
func (p *Pool) Count(ctx context.Context, d crossword.Difficulty) (int, error) {
	all, err := p.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(store.Filter(all, store.KindPool, d)), nil
}

// Take returns a puzzle of difficulty d.
func (p *Pool) Take(ctx context.Context, d crossword.Difficulty) (crossword.Snapshot, error) {
	p.mu.Lock()
	all, err := p.store.GetAll(ctx)
	if err != nil {
		p.mu.Unlock()
		return crossword.Snapshot{}, err
	}
	stored := store.Filter(all, store.KindPool, d)
	if len(stored) == 0 {
		p.mu.Unlock()
		log.Debug().Str("difficulty", string(d)).Msg("pool empty, building on demand")
		p.replenish(d)
		return p.gen(ctx, d)
	}
	pz := stored[0]
	err = p.store.Delete(ctx, pz.ID)
	p.mu.Unlock()
	if err != nil {
		return crossword.Snapshot{}, err
	}

	p.replenish(d)
	return pz.Crossword, nil
}

// Wait blocks until background replenishment is done.
func (p *Pool) Wait() { p.wg.Wait() }

// Close cancels background builds in flight and waits for them to return.
// Take keeps working after Close but no longer replenishes.
func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) replenish(d crossword.Difficulty) {
	if p.ctx.Err() != nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
		defer cancel()
		p.fillMu.Lock()
		defer p.fillMu.Unlock()

		n, err := p.Count(ctx, d)
		if err != nil {
			log.Warn().Err(err).Msg("pool count")
			return
		}
		for ; n < p.size; n++ {
			if err := p.add(ctx, d); err != nil {
				log.Warn().Err(err).Str("difficulty", string(d)).Msg("pool replenish")
				return
			}
		}
	}()
}

func (p *Pool) add(ctx context.Context, d crossword.Difficulty) error {
	snap, err := p.gen(ctx, d)
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	return p.store.Save(ctx, store.Puzzle{
		ID:         id.String(),
		Kind:       store.KindPool,
		Difficulty: d,
		Crossword:  snap,
		CreatedAt:  time.Now(),
	})
}
