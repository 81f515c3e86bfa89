// Package midiout sends step triggers to an external MIDI drum module.
package midiout

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/stepseq-go/internal/pattern"
)

// DrumChannel is MIDI channel 10, zero-based.
const DrumChannel uint8 = 9

// GM drum map notes for each track.
var Notes = [pattern.NumTracks]uint8{
	pattern.Kick:  36, // Bass Drum 1
	pattern.HiHat: 42, // Closed Hi-Hat
	pattern.Clap:  39, // Hand Clap
}

// ErrNoPort is returned when no output port matches.
var ErrNoPort = errors.New("midi output port not found")

// Sink turns triggers into note-on/note-off pairs. Drum modules treat notes
// on channel 10 as one-shots, so the note-off follows immediately.
type Sink struct {
	mu      sync.Mutex
	send    func(gomidi.Message) error
	channel uint8
	notes   [pattern.NumTracks]uint8
}

// NewSink wraps a send function, typically from gomidi.SendTo.
func NewSink(send func(gomidi.Message) error) *Sink {
	return &Sink{send: send, channel: DrumChannel, notes: Notes}
}

// SetChannel selects the zero-based output channel.
func (s *Sink) SetChannel(ch uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = ch & 0x0F
}

// SetNote remaps a track to another note.
func (s *Sink) SetNote(track pattern.Track, note uint8) {
	if !track.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[track] = note & 0x7F
}

func (s *Sink) Trigger(track pattern.Track, volume float64) error {
	if !track.Valid() {
		return errors.Wrapf(pattern.ErrOutOfRange, "unknown track %d", int(track))
	}
	s.mu.Lock()
	send, ch, note := s.send, s.channel, s.notes[track]
	s.mu.Unlock()
	if send == nil {
		return errors.New("midi sink is closed")
	}
	if err := send(gomidi.NoteOn(ch, note, Velocity(volume))); err != nil {
		return errors.Wrapf(err, "note on %s", track)
	}
	if err := send(gomidi.NoteOff(ch, note)); err != nil {
		return errors.Wrapf(err, "note off %s", track)
	}
	return nil
}

// Close detaches the sink from its port. The driver itself is closed with
// CloseDriver when the program exits.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = nil
	return nil
}

// Velocity maps a 0..1 volume onto 1..127. Zero would read as a note-off.
func Velocity(volume float64) uint8 {
	v := int(volume*127 + 0.5)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}

// Ports lists the names of the available output ports.
func Ports() []string {
	outs := gomidi.GetOutPorts()
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names
}

// Open connects to the first output port whose name contains name
// (case-insensitive).
func Open(name string) (*Sink, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, out := range gomidi.GetOutPorts() {
		if !strings.Contains(strings.ToLower(out.String()), want) {
			continue
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, errors.Wrapf(err, "open %q", out.String())
		}
		return NewSink(send), nil
	}
	return nil, errors.Wrapf(ErrNoPort, "%q", name)
}

// CloseDriver shuts the registered MIDI driver down.
func CloseDriver() {
	gomidi.CloseDriver()
}
