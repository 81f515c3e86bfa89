package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cbegin/stepseq-go/internal/clock"
	"github.com/cbegin/stepseq-go/internal/pattern"
)

// Sink sounds one track. Implementations must not block; the dispatcher calls
// it from the sequencer loop.
type Sink interface {
	Trigger(track pattern.Track, volume float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(track pattern.Track, volume float64) error

func (f SinkFunc) Trigger(track pattern.Track, volume float64) error { return f(track, volume) }

// DefaultVolumes are the per-track trigger levels.
var DefaultVolumes = [pattern.NumTracks]float64{
	pattern.Kick:  0.9,
	pattern.HiHat: 0.5,
	pattern.Clap:  0.7,
}

// Dispatcher sounds the tracks that are active on each step boundary.
//
// When a boundary batch covers more than one step (the host was late), only
// the final step is sounded. Playing the skipped hits back to back would flam
// audibly, so they are dropped and logged instead.
type Dispatcher struct {
	store   *pattern.Store
	sink    Sink
	log     logrus.FieldLogger
	mu      sync.Mutex
	volumes [pattern.NumTracks]float64
	muted   [pattern.NumTracks]bool

	dropped  atomic.Int64
	failures atomic.Int64
}

func New(store *pattern.Store, sink Sink, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		store:   store,
		sink:    sink,
		log:     log.WithField("component", "dispatch"),
		volumes: DefaultVolumes,
	}
}

// SetVolume sets a track's trigger level, clamped to [0,1].
func (d *Dispatcher) SetVolume(track pattern.Track, volume float64) {
	if !track.Valid() {
		return
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volumes[track] = volume
}

func (d *Dispatcher) Volume(track pattern.Track) float64 {
	if !track.Valid() {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volumes[track]
}

// Mute silences a track without touching its pattern. Used when a track's
// sample could not be loaded.
func (d *Dispatcher) Mute(track pattern.Track, muted bool) {
	if !track.Valid() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted[track] = muted
}

// Dispatch triggers every track active on b.Step exactly once and returns the
// tracks that were sounded.
func (d *Dispatcher) Dispatch(b clock.Boundary) []pattern.Track {
	if b.Crossed > 1 {
		d.dropped.Add(int64(b.Crossed - 1))
		d.log.WithFields(logrus.Fields{
			"step":    b.Step,
			"crossed": b.Crossed,
			"skipped": b.Skipped(),
		}).Debug("late tick, dropping skipped steps")
	}

	d.mu.Lock()
	volumes := d.volumes
	muted := d.muted
	d.mu.Unlock()

	var fired []pattern.Track
	for _, track := range pattern.Tracks() {
		if !d.store.IsActive(track, b.Step) || muted[track] {
			continue
		}
		fired = append(fired, track)
		if d.sink == nil {
			continue
		}
		if err := d.sink.Trigger(track, volumes[track]); err != nil {
			d.failures.Add(1)
			d.log.WithFields(logrus.Fields{
				"track": track.String(),
				"step":  b.Step,
			}).WithError(err).Warn("trigger failed")
		}
	}
	return fired
}

// Dropped returns how many skipped steps were not sounded.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Failures returns how many sink triggers returned an error.
func (d *Dispatcher) Failures() int64 { return d.failures.Load() }

// MultiSink fans each trigger out to several sinks. Every sink is tried; the
// first error is returned.
type MultiSink struct {
	mu    sync.Mutex
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		m.Add(s)
	}
	return m
}

// Add registers another sink. Nil sinks are ignored.
func (m *MultiSink) Add(s Sink) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

func (m *MultiSink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sinks)
}

func (m *MultiSink) Trigger(track pattern.Track, volume float64) error {
	m.mu.Lock()
	sinks := append([]Sink(nil), m.sinks...)
	m.mu.Unlock()
	var first error
	for _, s := range sinks {
		if err := s.Trigger(track, volume); err != nil && first == nil {
			first = err
		}
	}
	return first
}
