package dispatch

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/cbegin/stepseq-go/internal/clock"
	"github.com/cbegin/stepseq-go/internal/pattern"
)

type hit struct {
	track  pattern.Track
	volume float64
}

type recordingSink struct {
	hits []hit
	err  error
}

func (s *recordingSink) Trigger(track pattern.Track, volume float64) error {
	s.hits = append(s.hits, hit{track, volume})
	return s.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDispatchTriggersActiveTracksOnce(t *testing.T) {
	sink := &recordingSink{}
	d := New(pattern.Default(), sink, quietLogger())

	fired := d.Dispatch(clock.Boundary{Index: 4, Step: 4, Crossed: 1})
	if len(fired) != 2 || fired[0] != pattern.Kick || fired[1] != pattern.Clap {
		t.Fatalf("fired = %v, want [kick clap]", fired)
	}
	if len(sink.hits) != 2 {
		t.Fatalf("sink saw %d hits, want 2", len(sink.hits))
	}
	if sink.hits[0].volume != 0.9 || sink.hits[1].volume != 0.7 {
		t.Fatalf("unexpected volumes: %+v", sink.hits)
	}

	sink.hits = nil
	if fired := d.Dispatch(clock.Boundary{Index: 1, Step: 1, Crossed: 1}); len(fired) != 0 || len(sink.hits) != 0 {
		t.Fatalf("step 1 should be silent, got %v", fired)
	}
}

func TestDispatchSoundsOnlyFinalStepOfBatch(t *testing.T) {
	sink := &recordingSink{}
	d := New(pattern.Default(), sink, quietLogger())

	// Steps 2 (hihat) and 3 were skipped; step 4 (kick, clap) is sounded.
	d.Dispatch(clock.Boundary{Index: 4, Step: 4, Crossed: 3})
	for _, h := range sink.hits {
		if h.track == pattern.HiHat {
			t.Fatalf("skipped hihat on step 2 was sounded")
		}
	}
	if len(sink.hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(sink.hits))
	}
	if d.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", d.Dropped())
	}
}

func TestDispatchCountsEveryDroppedStepOfLongStall(t *testing.T) {
	sink := &recordingSink{}
	d := New(pattern.Default(), sink, quietLogger())

	// 40 boundaries in one batch: more than two bars were missed.
	d.Dispatch(clock.Boundary{Index: 40, Step: 8, Crossed: 40})
	if d.Dropped() != 39 {
		t.Fatalf("dropped = %d, want 39", d.Dropped())
	}
	if len(sink.hits) != 1 || sink.hits[0].track != pattern.Kick {
		t.Fatalf("hits = %+v, want only the kick on step 8", sink.hits)
	}
}

func TestDispatchContinuesAfterSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("device unavailable")}
	d := New(pattern.Default(), sink, quietLogger())
	d.Dispatch(clock.Boundary{Index: 4, Step: 4, Crossed: 1})
	if len(sink.hits) != 2 {
		t.Fatalf("every active track should still be tried, got %d", len(sink.hits))
	}
	if d.Failures() != 2 {
		t.Fatalf("failures = %d, want 2", d.Failures())
	}
}

func TestMuteAndVolume(t *testing.T) {
	sink := &recordingSink{}
	d := New(pattern.Default(), sink, quietLogger())
	d.Mute(pattern.Clap, true)
	d.SetVolume(pattern.Kick, 3)
	d.Dispatch(clock.Boundary{Index: 12, Step: 12, Crossed: 1})
	if len(sink.hits) != 1 || sink.hits[0].track != pattern.Kick || sink.hits[0].volume != 1 {
		t.Fatalf("hits = %+v, want one kick at volume 1", sink.hits)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("b failed")}
	c := &recordingSink{}
	m := NewMultiSink(a, nil, b, c)
	if m.Len() != 3 {
		t.Fatalf("len = %d, want 3", m.Len())
	}
	if err := m.Trigger(pattern.HiHat, 0.5); err == nil {
		t.Fatalf("expected error from b")
	}
	if len(a.hits) != 1 || len(b.hits) != 1 || len(c.hits) != 1 {
		t.Fatalf("every sink should see the trigger")
	}
}

func TestSinkFunc(t *testing.T) {
	var got pattern.Track = -1
	s := SinkFunc(func(track pattern.Track, _ float64) error {
		got = track
		return nil
	})
	_ = s.Trigger(pattern.Clap, 1)
	if got != pattern.Clap {
		t.Fatalf("SinkFunc got %v", got)
	}
}
