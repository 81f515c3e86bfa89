package tempo

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// DefaultStepsPerBeat divides each beat into sixteenth notes.
const DefaultStepsPerBeat = 4

// ErrInvalidParameter is returned for a non-positive tempo or step division.
var ErrInvalidParameter = errors.New("invalid tempo parameter")

// StepIntervalMs converts a tempo in BPM into the length of one step in milliseconds.
func StepIntervalMs(bpm float64, stepsPerBeat int) (float64, error) {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return 0, errors.Wrapf(ErrInvalidParameter, "tempo %v must be a positive number", bpm)
	}
	if stepsPerBeat <= 0 {
		return 0, errors.Wrapf(ErrInvalidParameter, "steps per beat %d must be positive", stepsPerBeat)
	}
	ms := beatDurationMs(bpm) / float64(stepsPerBeat)
	if math.IsInf(ms, 0) || math.IsNaN(ms) {
		return 0, errors.Wrapf(ErrInvalidParameter, "tempo %v gives no finite step interval", bpm)
	}
	// The interval must be representable as a time.Duration of at least 1ns.
	ns := ms * float64(time.Millisecond)
	if ns < 1 || ns >= math.MaxInt64 {
		return 0, errors.Wrapf(ErrInvalidParameter, "tempo %v gives a step interval of %vms, outside 1ns..%v", bpm, ms, time.Duration(math.MaxInt64))
	}
	return ms, nil
}

func beatDurationMs(bpm float64) float64 {
	return 60000.0 / bpm
}

// Model is a validated tempo. The zero value is not usable; build one with New.
type Model struct {
	bpm          float64
	stepsPerBeat int
	intervalMs   float64
}

func New(bpm float64, stepsPerBeat int) (Model, error) {
	ms, err := StepIntervalMs(bpm, stepsPerBeat)
	if err != nil {
		return Model{}, err
	}
	return Model{bpm: bpm, stepsPerBeat: stepsPerBeat, intervalMs: ms}, nil
}

func (m Model) BPM() float64      { return m.bpm }
func (m Model) StepsPerBeat() int { return m.stepsPerBeat }

// BeatDurationMs returns the length of one beat (quarter note) in milliseconds.
func (m Model) BeatDurationMs() float64 {
	return beatDurationMs(m.bpm)
}

// IntervalMs returns the step interval in milliseconds.
func (m Model) IntervalMs() float64 {
	return m.intervalMs
}

// Interval returns the step interval rounded to the nearest nanosecond.
func (m Model) Interval() time.Duration {
	return time.Duration(math.Round(m.intervalMs * float64(time.Millisecond)))
}
