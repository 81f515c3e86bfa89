package transport

import (
	"sync"

	"github.com/cbegin/stepseq-go/internal/clock"
)

// State is the play state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Controller is the only component allowed to start or stop the clock.
type Controller struct {
	mu       sync.Mutex
	clock    *clock.Clock
	onChange func(State)
}

func New(c *clock.Clock) *Controller {
	return &Controller{clock: c}
}

// OnChange installs a callback invoked after each transition.
func (t *Controller) OnChange(fn func(State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Toggle starts a stopped clock (from step 0) or stops a playing one, and
// returns the new state.
func (t *Controller) Toggle() State {
	t.mu.Lock()
	var next State
	if t.clock.Playing() {
		t.clock.Stop()
		next = Stopped
	} else {
		t.clock.Start()
		next = Playing
	}
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(next)
	}
	return next
}

// Stop stops the clock if it is playing. It reports whether anything changed.
func (t *Controller) Stop() bool {
	t.mu.Lock()
	if !t.clock.Playing() {
		t.mu.Unlock()
		return false
	}
	t.clock.Stop()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(Stopped)
	}
	return true
}

func (t *Controller) State() State {
	if t.clock.Playing() {
		return Playing
	}
	return Stopped
}
