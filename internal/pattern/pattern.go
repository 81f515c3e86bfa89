package pattern

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Len is the number of steps in every track.
const Len = 16

// Track identifies one of the fixed instrument tracks.
type Track int

const (
	Kick Track = iota
	HiHat
	Clap

	NumTracks = 3
)

var trackNames = [NumTracks]string{"kick", "hihat", "clap"}

func (t Track) String() string {
	if !t.Valid() {
		return "track(" + strconv.Itoa(int(t)) + ")"
	}
	return trackNames[t]
}

// Valid reports whether t is one of the known tracks.
func (t Track) Valid() bool {
	return t >= 0 && t < NumTracks
}

// Tracks returns every track in display order.
func Tracks() []Track {
	return []Track{Kick, HiHat, Clap}
}

// ParseTrack maps a track name (case-insensitive) to its Track.
func ParseTrack(name string) (Track, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "hh", "hat":
		name = "hihat"
	}
	for i, n := range trackNames {
		if n == name {
			return Track(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidPattern, "unknown track %q (expected kick|hihat|clap)", name)
}

var (
	// ErrOutOfRange marks a lookup with a bad step index or an unknown track.
	ErrOutOfRange = errors.New("pattern index out of range")
	// ErrInvalidPattern marks a pattern configuration with bad dimensions.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Store holds the on/off steps of every track. It is immutable once built.
type Store struct {
	steps [NumTracks][Len]bool
}

// New builds a store from the active step indices of each track. Tracks not
// present in hits are silent.
func New(hits map[Track][]int) (*Store, error) {
	s := &Store{}
	for track, idx := range hits {
		if !track.Valid() {
			return nil, errors.Wrapf(ErrInvalidPattern, "unknown track %d", int(track))
		}
		for _, i := range idx {
			if i < 0 || i >= Len {
				return nil, errors.Wrapf(ErrInvalidPattern, "%s: step %d outside [0,%d]", track, i, Len-1)
			}
			s.steps[track][i] = true
		}
	}
	return s, nil
}

// FromRows builds a store from step literals in ParseSteps notation.
func FromRows(rows map[Track]string) (*Store, error) {
	s := &Store{}
	for track, row := range rows {
		if !track.Valid() {
			return nil, errors.Wrapf(ErrInvalidPattern, "unknown track %d", int(track))
		}
		steps, err := ParseSteps(row)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", track)
		}
		s.steps[track] = steps
	}
	return s, nil
}

// Default returns the built-in pattern: four-on-the-floor kick, off-beat
// hi-hats and a clap on the backbeat.
func Default() *Store {
	s, err := FromRows(map[Track]string{
		Kick:  "x...x...x...x...",
		HiHat: "..x...x...x...x.",
		Clap:  "....x.......x...",
	})
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSteps reads a 16 character row where 'x' or 'X' marks an active step
// and '.', '-' or '_' a rest. Spaces and '|' are ignored so rows may be
// grouped by beat ("x... x... x... x...").
func ParseSteps(row string) ([Len]bool, error) {
	var out [Len]bool
	n := 0
	for _, r := range row {
		switch r {
		case ' ', '|', '\t':
			continue
		case 'x', 'X':
			if n < Len {
				out[n] = true
			}
		case '.', '-', '_':
		default:
			return out, errors.Wrapf(ErrInvalidPattern, "unexpected %q in step row", r)
		}
		n++
	}
	if n != Len {
		return out, errors.Wrapf(ErrInvalidPattern, "step row has %d steps, want %d", n, Len)
	}
	return out, nil
}

// FormatSteps is the inverse of ParseSteps.
func FormatSteps(steps [Len]bool) string {
	var b strings.Builder
	for _, on := range steps {
		if on {
			b.WriteByte('x')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Lookup reports whether track sounds on step.
func (s *Store) Lookup(track Track, step int) (bool, error) {
	if !track.Valid() {
		return false, errors.Wrapf(ErrOutOfRange, "unknown track %d", int(track))
	}
	if step < 0 || step >= Len {
		return false, errors.Wrapf(ErrOutOfRange, "step %d outside [0,%d]", step, Len-1)
	}
	return s.steps[track][step], nil
}

// IsActive is Lookup for indices the caller already knows are valid. A bad
// index is a programming error and panics.
func (s *Store) IsActive(track Track, step int) bool {
	on, err := s.Lookup(track, step)
	if err != nil {
		panic(err)
	}
	return on
}

// Steps returns a copy of a track's row.
func (s *Store) Steps(track Track) [Len]bool {
	if !track.Valid() {
		panic(errors.Wrapf(ErrOutOfRange, "unknown track %d", int(track)))
	}
	return s.steps[track]
}

// ActiveAt returns the tracks that sound on step, in track order.
func (s *Store) ActiveAt(step int) []Track {
	var out []Track
	for _, tr := range Tracks() {
		if s.IsActive(tr, step) {
			out = append(out, tr)
		}
	}
	return out
}
