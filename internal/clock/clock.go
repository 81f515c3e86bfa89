package clock

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/cbegin/stepseq-go/internal/tempo"
)

// Steps is the length of the step cycle.
const Steps = 16

// ErrPlaying is returned when reconfiguring a running clock.
var ErrPlaying = errors.New("clock is playing")

// Boundary reports the step boundaries crossed by one Tick.
type Boundary struct {
	// Index is the number of the most recent boundary since Start; the
	// downbeat at elapsed zero is boundary 0.
	Index int64
	// Step is the Step Counter after the crossing, Index mod Steps.
	Step int
	// Crossed is how many boundaries this Tick covers. It is 1 unless the
	// caller was late by more than one interval.
	Crossed int
}

// Skipped returns the steps that were crossed before Step in this batch,
// oldest first. They are not meant to be sounded.
func (b Boundary) Skipped() []int {
	if b.Crossed <= 1 {
		return nil
	}
	n := b.Crossed - 1
	if n > Steps {
		n = Steps
	}
	out := make([]int, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, wrap(b.Index-int64(i)))
	}
	return out
}

type Option func(*Clock)

// WithNow replaces the time source. The function must be monotonic; time.Now
// qualifies because its readings carry the monotonic clock.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// Clock turns elapsed time into step boundaries. Boundary detection is
// edge-triggered: it counts whole intervals since Start, so each boundary
// fires once however often Tick is polled, and a late poll catches up without
// accumulating drift.
type Clock struct {
	mu      sync.Mutex
	now     func() time.Time
	tempo   tempo.Model
	started time.Time
	last    int64

	step    atomic.Int32
	playing atomic.Bool
}

func New(m tempo.Model, opts ...Option) (*Clock, error) {
	if m.IntervalMs() <= 0 {
		return nil, errors.Wrap(tempo.ErrInvalidParameter, "clock needs a tempo built with tempo.New")
	}
	c := &Clock{now: time.Now, tempo: m, last: -1}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start zeroes the elapsed reference and the Step Counter. It has no effect
// on a clock that is already playing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing.Load() {
		return
	}
	c.started = c.now()
	c.last = -1
	c.step.Store(0)
	c.playing.Store(true)
}

// Stop freezes the Step Counter until the next Start.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing.Store(false)
}

func (c *Clock) Playing() bool {
	return c.playing.Load()
}

// CurrentStep returns the Step Counter. It never has side effects.
func (c *Clock) CurrentStep() int {
	return int(c.step.Load())
}

// Elapsed returns the time since the last Start, or zero when stopped.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing.Load() {
		return 0
	}
	return c.now().Sub(c.started)
}

// Tick checks for step boundaries crossed since the previous call. It returns
// false when stopped or when no new boundary has been reached.
func (c *Clock) Tick() (Boundary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing.Load() {
		return Boundary{}, false
	}
	elapsedMs := float64(c.now().Sub(c.started)) / float64(time.Millisecond)
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	k := int64(math.Floor(elapsedMs / c.tempo.IntervalMs()))
	if k <= c.last {
		return Boundary{}, false
	}
	b := Boundary{Index: k, Step: wrap(k), Crossed: int(k - c.last)}
	c.last = k
	c.step.Store(int32(b.Step))
	return b, true
}

// Tempo returns the tempo the clock runs at.
func (c *Clock) Tempo() tempo.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// SetTempo changes the interval. Tempo changes are only accepted while stopped.
func (c *Clock) SetTempo(m tempo.Model) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing.Load() {
		return errors.WithStack(ErrPlaying)
	}
	if m.IntervalMs() <= 0 {
		return errors.Wrap(tempo.ErrInvalidParameter, "clock needs a tempo built with tempo.New")
	}
	c.tempo = m
	return nil
}

// NextBoundaryIn returns how long until the next boundary, which lets a host
// sleep instead of polling. It returns zero when stopped or overdue.
func (c *Clock) NextBoundaryIn() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing.Load() {
		return 0
	}
	next := time.Duration(float64(c.last+1) * c.tempo.IntervalMs() * float64(time.Millisecond))
	d := next - c.now().Sub(c.started)
	if d < 0 {
		return 0
	}
	return d
}

func wrap(k int64) int {
	s := int(k % Steps)
	if s < 0 {
		s += Steps
	}
	return s
}
