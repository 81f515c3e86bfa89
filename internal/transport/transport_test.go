package transport

import (
	"testing"
	"time"

	"github.com/cbegin/stepseq-go/internal/clock"
	"github.com/cbegin/stepseq-go/internal/tempo"
)

func TestToggleRoundTrip(t *testing.T) {
	m, err := tempo.New(120, 4)
	if err != nil {
		t.Fatalf("tempo: %v", err)
	}
	now := time.Unix(0, 0)
	c, err := clock.New(m, clock.WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	tr := New(c)

	var seen []State
	tr.OnChange(func(s State) { seen = append(seen, s) })

	if tr.State() != Stopped {
		t.Fatalf("initial state = %v", tr.State())
	}
	if got := tr.Toggle(); got != Playing || !c.Playing() {
		t.Fatalf("toggle from stopped = %v", got)
	}
	if got := tr.Toggle(); got != Stopped || c.Playing() {
		t.Fatalf("toggle from playing = %v", got)
	}
	if c.CurrentStep() != 0 {
		t.Fatalf("step = %d, want 0", c.CurrentStep())
	}
	if len(seen) != 2 || seen[0] != Playing || seen[1] != Stopped {
		t.Fatalf("callbacks = %v", seen)
	}
	if tr.Stop() {
		t.Fatalf("Stop on a stopped transport should report no change")
	}
}

func TestToggleRestartsFromStepZero(t *testing.T) {
	m, _ := tempo.New(120, 4)
	now := time.Unix(0, 0)
	c, _ := clock.New(m, clock.WithNow(func() time.Time { return now }))
	tr := New(c)

	tr.Toggle()
	c.Tick()
	now = now.Add(7 * 125 * time.Millisecond)
	c.Tick()
	if c.CurrentStep() != 7 {
		t.Fatalf("step = %d, want 7", c.CurrentStep())
	}
	tr.Toggle()
	tr.Toggle()
	if c.CurrentStep() != 0 {
		t.Fatalf("restart left step at %d", c.CurrentStep())
	}
}
