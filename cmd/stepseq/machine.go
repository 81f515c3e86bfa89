package main

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/cbegin/stepseq-go"
	"github.com/cbegin/stepseq-go/internal/midiout"
	"github.com/cbegin/stepseq-go/internal/pattern"
)

// parsePattern applies track=row overrides on top of the built-in pattern.
func parsePattern(args []string) (*pattern.Store, error) {
	rows := map[pattern.Track]string{}
	base := pattern.Default()
	for _, track := range pattern.Tracks() {
		rows[track] = pattern.FormatSteps(base.Steps(track))
	}
	for _, arg := range args {
		name, row, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, errors.Wrapf(pattern.ErrInvalidPattern, "%q: want track=steps", arg)
		}
		track, err := pattern.ParseTrack(name)
		if err != nil {
			return nil, err
		}
		rows[track] = row
	}
	return pattern.FromRows(rows)
}

func midiPorts() []string {
	defer midiout.CloseDriver()
	return midiout.Ports()
}

// openMachine builds a machine from the shared flags. The returned cleanup
// closes the machine and any MIDI port.
func openMachine(opts ...stepseq.Option) (*stepseq.Machine, func(), error) {
	store, err := parsePattern(patternArg)
	if err != nil {
		return nil, nil, errors.Wrap(stepseq.ErrConfiguration, err.Error())
	}
	opts = append([]stepseq.Option{
		stepseq.WithTempo(tempoBPM),
		stepseq.WithPattern(store),
		stepseq.WithLenientSamples(lenient),
	}, opts...)
	if !noSamples {
		opts = append(opts, stepseq.WithSampleDir(sampleDir))
	}

	var midi *midiout.Sink
	if midiOut != "" {
		midi, err = midiout.Open(midiOut)
		if err != nil {
			midiout.CloseDriver()
			return nil, nil, err
		}
		opts = append(opts, stepseq.WithSink(midi))
	}

	m, err := stepseq.New(opts...)
	if err != nil {
		if midi != nil {
			_ = midi.Close()
			midiout.CloseDriver()
		}
		return nil, nil, err
	}
	cleanup := func() {
		_ = m.Close()
		if midi != nil {
			_ = midi.Close()
			midiout.CloseDriver()
		}
	}
	return m, cleanup, nil
}
