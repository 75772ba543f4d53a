package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/store"
)

// counter builds numbered one-row puzzles so tests can tell them apart.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) gen(_ context.Context, d crossword.Difficulty) (crossword.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return crossword.Snapshot{Size: 1, Difficulty: d, Grid: []string{string(rune('a' + c.n%26))}}, nil
}

func (c *counter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestFill(t *testing.T) {
	st := store.NewMemoryStore()
	c := &counter{}
	p := New(st, c.gen, 3, time.Second)

	require.NoError(t, p.Fill(context.Background()))
	assert.Equal(t, 9, c.calls())
	for _, d := range crossword.Difficulties {
		n, err := p.Count(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, 3, n, d)
	}

	// Already full: nothing to build.
	require.NoError(t, p.Fill(context.Background()))
	assert.Equal(t, 9, c.calls())
}

func TestTake_HandsOutOldestAndReplenishes(t *testing.T) {
	st := store.NewMemoryStore()
	c := &counter{}
	p := New(st, c.gen, 2, time.Second)
	require.NoError(t, p.Fill(context.Background()))

	all, err := st.GetAll(context.Background())
	require.NoError(t, err)
	oldest := store.Filter(all, store.KindPool, crossword.Hard)[0]

	got, err := p.Take(context.Background(), crossword.Hard)
	require.NoError(t, err)
	assert.Equal(t, oldest.Crossword, got)

	p.Wait()
	_, err = st.GetByID(context.Background(), oldest.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "a taken puzzle is never handed out again")
	n, err := p.Count(context.Background(), crossword.Hard)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 7, c.calls())
}

func TestTake_EmptyPoolBuildsOnDemand(t *testing.T) {
	c := &counter{}
	p := New(store.NewMemoryStore(), c.gen, 0, time.Second)

	got, err := p.Take(context.Background(), crossword.Easy)
	require.NoError(t, err)
	p.Wait()
	assert.Equal(t, crossword.Easy, got.Difficulty)
	assert.Equal(t, 1, c.calls())
}

func TestTake_Concurrent(t *testing.T) {
	st := store.NewMemoryStore()
	c := &counter{}
	p := New(st, c.gen, 4, time.Second)
	require.NoError(t, p.Fill(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Take(context.Background(), crossword.Normal)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	p.Wait()

	n, err := p.Count(context.Background(), crossword.Normal)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestFill_GeneratorError(t *testing.T) {
	boom := errors.New("boom")
	p := New(store.NewMemoryStore(), func(context.Context, crossword.Difficulty) (crossword.Snapshot, error) {
		return crossword.Snapshot{}, boom
	}, 1, time.Second)

	assert.ErrorIs(t, p.Fill(context.Background()), boom)
}

func TestClose_CancelsReplenishment(t *testing.T) {
	st := store.NewMemoryStore()
	c := &counter{}
	p := New(st, c.gen, 1, time.Second)
	require.NoError(t, p.Fill(context.Background()))

	// From here on every build blocks until its context is done.
	started := make(chan struct{}, 1)
	p.gen = func(ctx context.Context, _ crossword.Difficulty) (crossword.Snapshot, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return crossword.Snapshot{}, ctx.Err()
	}
	p.timeout = time.Hour

	_, err := p.Take(context.Background(), crossword.Easy)
	require.NoError(t, err)
	<-started

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the background build")
	}

	// Closed pools still hand out puzzles but stop topping up.
	p.gen = c.gen
	got, err := p.Take(context.Background(), crossword.Easy)
	require.NoError(t, err)
	assert.Equal(t, crossword.Easy, got.Difficulty)
	p.Wait()
	n, err := p.Count(context.Background(), crossword.Easy)
	require.NoError(t, err)
	assert.Zero(t, n)
}
