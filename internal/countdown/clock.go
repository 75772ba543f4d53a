// internal/countdown/clock.go
//
// Per-session countdown used by dynamic games.
//
//	Stopped --Start--> Running --tick 0--> Ended
//	Running --Reset--> Running (restarts from initial)
//
// Every tick is emitted while holding the clock mutex and tagged with the
// generation it was scheduled under. Reset and Close bump the generation, so a
// timer that already fired but has not yet taken the lock is dropped.
// emit must not call back into the Clock.

package countdown

import (
	"sync"
	"time"
)

// State of a Clock.
type State int

const (
	Stopped State = iota
	Running
	Ended
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Timer is the part of *time.Timer the clock needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Clock.
type Option func(*Clock)

// WithScheduler replaces the wall-clock scheduler, mostly for tests.
func WithScheduler(s Scheduler) Option {
	return func(c *Clock) { c.sched = s }
}

// Clock counts down from an initial value, one tick per interval.
type Clock struct {
	mu        sync.Mutex
	initial   int
	remaining int
	interval  time.Duration
	state     State
	gen       uint64
	timer     Timer
	closed    bool
	emit      func(int)
	sched     Scheduler
}

// Snapshot is a point-in-time view of a Clock.
type Snapshot struct {
	State     State
	Initial   int
	Remaining int
}

// New returns a stopped clock. emit receives every tick value.
func New(initial int, interval time.Duration, emit func(int), opts ...Option) *Clock {
	c := &Clock{
		initial:  max(initial, 0),
		interval: interval,
		emit:     emit,
		sched:    realScheduler{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start emits the initial value right away and then counts down to zero.
// It only works from Stopped; false otherwise.
func (c *Clock) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != Stopped {
		return false
	}
	c.startLocked()
	return true
}

// Reset cancels the pending tick and restarts from the initial value.
// It also restarts an Ended clock.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopLocked()
	c.startLocked()
}

// SetInitial changes the value used by the next Start or Reset.
func (c *Clock) SetInitial(v int) {
	c.mu.Lock()
	c.initial = max(v, 0)
	c.mu.Unlock()
}

// Close stops the clock for good. Safe to call more than once.
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopLocked()
}

// Snapshot returns the current state.
func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Initial: c.initial, Remaining: c.remaining}
}

func (c *Clock) startLocked() {
	c.gen++
	c.remaining = c.initial
	c.state = Running
	c.tickLocked(c.gen)
}

func (c *Clock) tickLocked(gen uint64) {
	if c.emit != nil {
		c.emit(c.remaining)
	}
	if c.remaining == 0 {
		c.state = Ended
		c.timer = nil
		return
	}
	c.timer = c.sched.AfterFunc(c.interval, func() { c.fire(gen) })
}

func (c *Clock) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen || c.state != Running {
		return
	}
	c.remaining--
	c.tickLocked(gen)
}

func (c *Clock) stopLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
