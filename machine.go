package stepseq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	intaudio "github.com/cbegin/stepseq-go/internal/audio"
	intclock "github.com/cbegin/stepseq-go/internal/clock"
	intdisp "github.com/cbegin/stepseq-go/internal/dispatch"
	intpat "github.com/cbegin/stepseq-go/internal/pattern"
	inttempo "github.com/cbegin/stepseq-go/internal/tempo"
	inttrans "github.com/cbegin/stepseq-go/internal/transport"
)

// Track identifies one instrument row.
type Track = intpat.Track

const (
	Kick  = intpat.Kick
	HiHat = intpat.HiHat
	Clap  = intpat.Clap
)

// Steps is the pattern length.
const Steps = intpat.Len

// StepEvent carries step and transport events from Watch().
type StepEvent struct {
	Kind    int // EventStep or EventTransport
	Step    int
	Crossed int
	Tracks  []Track
	Playing bool
}

const (
	EventStep int = iota
	EventTransport
)

// Pad is the display state of one step of the selected track.
type Pad struct {
	Active  bool
	Current bool
}

// Machine is a 16-step, three-track drum machine. A host drives it by calling
// Tick on its own frame loop or by running Run in a goroutine.
type Machine struct {
	mu         sync.Mutex
	log        logrus.FieldLogger
	store      *intpat.Store
	clock      *intclock.Clock
	transport  *inttrans.Controller
	dispatcher *intdisp.Dispatcher
	sinks      *intdisp.MultiSink
	bank       *intaudio.Bank
	selected   Track
	wake       time.Duration
	closed     atomic.Bool
	eventCh    chan StepEvent
	eventChMu  sync.Mutex
}

// bankSink skips tracks whose sample never loaded.
type bankSink struct {
	bank *intaudio.Bank
}

func (s bankSink) Trigger(track Track, volume float64) error {
	if !s.bank.Loaded(track) {
		return nil
	}
	return s.bank.Trigger(track, volume)
}

func New(opts ...Option) (*Machine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		return nil, configErr(errors.Wrap(intpat.ErrInvalidPattern, "pattern is nil"))
	}
	model, err := inttempo.New(cfg.bpm, cfg.stepsPerBeat)
	if err != nil {
		return nil, configErr(err)
	}
	if cfg.wake <= 0 {
		return nil, configErr(errors.Wrapf(inttempo.ErrInvalidParameter, "wake interval %v", cfg.wake))
	}
	clk, err := intclock.New(model, intclock.WithNow(cfg.now))
	if err != nil {
		return nil, configErr(err)
	}
	log := cfg.log.WithField("component", "machine")

	sinks := intdisp.NewMultiSink()
	var (
		bank   *intaudio.Bank
		failed map[Track]error
	)
	if cfg.sampleDir != "" {
		bank = cfg.newBank(cfg.sampleRate)
		failed, err = bank.LoadDir(cfg.sampleDir, cfg.lenient)
		if err != nil {
			_ = bank.Close()
			return nil, err
		}
		for track, ferr := range failed {
			log.WithField("track", track.String()).WithError(ferr).Warn("sample not loaded, track is silent")
		}
		sinks.Add(bankSink{bank: bank})
	}
	for _, s := range cfg.sinks {
		sinks.Add(s)
	}

	d := intdisp.New(cfg.store, sinks, cfg.log)
	for track, v := range cfg.volumes {
		d.SetVolume(track, v)
	}
	for track := range failed {
		d.Mute(track, true)
	}

	m := &Machine{
		log:        log,
		store:      cfg.store,
		clock:      clk,
		transport:  inttrans.New(clk),
		dispatcher: d,
		sinks:      sinks,
		bank:       bank,
		selected:   Kick,
		wake:       cfg.wake,
	}
	m.transport.OnChange(m.onTransport)
	log.WithFields(logrus.Fields{
		"bpm":      model.BPM(),
		"interval": model.Interval(),
		"sinks":    sinks.Len(),
	}).Debug("machine ready")
	return m, nil
}

func (m *Machine) onTransport(s inttrans.State) {
	playing := s == inttrans.Playing
	if playing {
		m.log.Info("starting")
	} else {
		m.log.Info("stopping")
	}
	m.sendEvent(StepEvent{Kind: EventTransport, Step: m.clock.CurrentStep(), Playing: playing})
}

// Toggle starts or stops playback and reports whether the machine is now
// playing. Starting always begins at step 0.
func (m *Machine) Toggle() bool {
	return m.transport.Toggle() == inttrans.Playing
}

// Stop halts playback. It is a no-op when already stopped.
func (m *Machine) Stop() {
	m.transport.Stop()
}

func (m *Machine) Playing() bool {
	return m.clock.Playing()
}

// CurrentStep returns the step counter (0-15).
func (m *Machine) CurrentStep() int {
	return m.clock.CurrentStep()
}

// Tick advances the clock and sounds the tracks active on the newest step.
// It reports false when no step boundary was crossed since the last call.
func (m *Machine) Tick() (StepEvent, bool) {
	if m.closed.Load() {
		return StepEvent{}, false
	}
	b, ok := m.clock.Tick()
	if !ok {
		return StepEvent{}, false
	}
	fired := m.dispatcher.Dispatch(b)
	ev := StepEvent{Kind: EventStep, Step: b.Step, Crossed: b.Crossed, Tracks: fired, Playing: true}
	m.log.WithFields(logrus.Fields{
		"step":    b.Step,
		"crossed": b.Crossed,
		"tracks":  fired,
	}).Debug("step")
	m.sendEvent(ev)
	return ev, true
}

// Run polls the clock until ctx is done. It does not start playback.
func (m *Machine) Run(ctx context.Context) error {
	t := time.NewTicker(m.wake)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if m.closed.Load() {
				return nil
			}
			m.Tick()
		}
	}
}

func (m *Machine) sendEvent(ev StepEvent) {
	m.eventChMu.Lock()
	defer m.eventChMu.Unlock()
	if m.eventCh == nil {
		return
	}
	select {
	case m.eventCh <- ev:
	default:
		// Channel full; drop event
	}
}

// Watch returns a channel that receives events. Events are sent when:
//   - EventStep: a step boundary was sounded (Tracks lists what fired)
//   - EventTransport: playback started or stopped
//
// The channel is buffered (cap 32) and closed by Close. Events are dropped
// rather than blocking the loop. Only the most recent Watch() channel
// receives events.
func (m *Machine) Watch() <-chan StepEvent {
	ch := make(chan StepEvent, 32)
	m.eventChMu.Lock()
	defer m.eventChMu.Unlock()
	if m.closed.Load() {
		close(ch)
		return ch
	}
	m.eventCh = ch
	return ch
}

// SelectTrack chooses which track the pads display.
func (m *Machine) SelectTrack(track Track) error {
	if !track.Valid() {
		return errors.Wrapf(ErrOutOfRange, "track %d", int(track))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = track
	return nil
}

func (m *Machine) SelectedTrack() Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Pads returns the display state of the selected track. The current step is
// only marked while playing.
func (m *Machine) Pads() [Steps]Pad {
	steps := m.store.Steps(m.SelectedTrack())
	playing := m.clock.Playing()
	current := m.clock.CurrentStep()
	var pads [Steps]Pad
	for i, active := range steps {
		pads[i] = Pad{Active: active, Current: playing && i == current}
	}
	return pads
}

func (m *Machine) Pattern() *intpat.Store {
	return m.store
}

// Mute silences a track without changing its pattern.
func (m *Machine) Mute(track Track, muted bool) {
	m.dispatcher.Mute(track, muted)
}

func (m *Machine) SetVolume(track Track, volume float64) {
	m.dispatcher.SetVolume(track, volume)
}

func (m *Machine) Volume(track Track) float64 {
	return m.dispatcher.Volume(track)
}

// SetTempo changes the tempo. It fails with ErrPlaying unless stopped.
func (m *Machine) SetTempo(bpm float64) error {
	model, err := inttempo.New(bpm, m.clock.Tempo().StepsPerBeat())
	if err != nil {
		return configErr(err)
	}
	if err := m.clock.SetTempo(model); err != nil {
		return err
	}
	m.log.WithField("bpm", bpm).Info("tempo changed")
	return nil
}

func (m *Machine) Tempo() float64 {
	return m.clock.Tempo().BPM()
}

// StepInterval returns the duration of one step at the current tempo.
func (m *Machine) StepInterval() time.Duration {
	return m.clock.Tempo().Interval()
}

// Dropped returns how many late steps were skipped without sounding.
func (m *Machine) Dropped() int64 { return m.dispatcher.Dropped() }

// Failures returns how many triggers failed.
func (m *Machine) Failures() int64 { return m.dispatcher.Failures() }

// Close stops playback, releases loaded samples and closes the Watch channel.
func (m *Machine) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.transport.Stop()
	m.eventChMu.Lock()
	if m.eventCh != nil {
		close(m.eventCh)
		m.eventCh = nil
	}
	m.eventChMu.Unlock()
	if m.bank != nil {
		return m.bank.Close()
	}
	return nil
}
