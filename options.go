package stepseq

import (
	"time"

	"github.com/sirupsen/logrus"

	intaudio "github.com/cbegin/stepseq-go/internal/audio"
	intdisp "github.com/cbegin/stepseq-go/internal/dispatch"
	intpat "github.com/cbegin/stepseq-go/internal/pattern"
	inttempo "github.com/cbegin/stepseq-go/internal/tempo"
)

type Option func(*config)

type config struct {
	bpm          float64
	stepsPerBeat int
	store        *intpat.Store
	sampleDir    string
	lenient      bool
	sampleRate   int
	sinks        []intdisp.Sink
	log          logrus.FieldLogger
	now          func() time.Time
	wake         time.Duration
	volumes      map[intpat.Track]float64
	newBank      func(sampleRate int) *intaudio.Bank
}

func defaultConfig() config {
	return config{
		bpm:          120,
		stepsPerBeat: inttempo.DefaultStepsPerBeat,
		store:        intpat.Default(),
		sampleRate:   intaudio.DefaultSampleRate,
		wake:         2 * time.Millisecond,
		log:          logrus.StandardLogger(),
		now:          time.Now,
		newBank:      intaudio.NewBank,
	}
}

// WithTempo sets the tempo in beats per minute. It must be positive.
func WithTempo(bpm float64) Option {
	return func(cfg *config) {
		cfg.bpm = bpm
	}
}

// WithStepsPerBeat sets how many steps make one beat (4 = sixteenth notes).
func WithStepsPerBeat(n int) Option {
	return func(cfg *config) {
		cfg.stepsPerBeat = n
	}
}

// WithPattern replaces the built-in pattern.
func WithPattern(store *intpat.Store) Option {
	return func(cfg *config) {
		cfg.store = store
	}
}

// WithSampleDir loads kick-808.wav, hihat-electro.wav and clap.wav from dir
// and plays them through the audio device. Without it the machine only
// drives the sinks passed with WithSink.
func WithSampleDir(dir string) Option {
	return func(cfg *config) {
		cfg.sampleDir = dir
	}
}

// WithLenientSamples lets a track whose sample fails to load play silently
// instead of failing New.
func WithLenientSamples(enabled bool) Option {
	return func(cfg *config) {
		cfg.lenient = enabled
	}
}

// WithSampleRate sets the audio output rate used for loaded samples.
func WithSampleRate(rate int) Option {
	return func(cfg *config) {
		cfg.sampleRate = rate
	}
}

// WithSink adds a trigger destination, e.g. a MIDI output.
func WithSink(s intdisp.Sink) Option {
	return func(cfg *config) {
		cfg.sinks = append(cfg.sinks, s)
	}
}

// WithTrackVolume overrides a track's trigger volume (0..1).
func WithTrackVolume(track intpat.Track, volume float64) Option {
	return func(cfg *config) {
		if cfg.volumes == nil {
			cfg.volumes = map[intpat.Track]float64{}
		}
		cfg.volumes[track] = volume
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithNow replaces the monotonic time source. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithWakeInterval sets how often Run polls the clock.
func WithWakeInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.wake = d
	}
}
