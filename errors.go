package stepseq

import (
	"github.com/pkg/errors"

	intaudio "github.com/cbegin/stepseq-go/internal/audio"
	intclock "github.com/cbegin/stepseq-go/internal/clock"
	intpat "github.com/cbegin/stepseq-go/internal/pattern"
)

var (
	// ErrConfiguration marks an invalid tempo or pattern. New returns it
	// before any loop can start.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrLoad marks a sample file that is missing or cannot be decoded.
	ErrLoad = intaudio.ErrLoad
	// ErrOutOfRange marks a bad step or track index.
	ErrOutOfRange = intpat.ErrOutOfRange
	// ErrPlaying is returned by SetTempo while the transport is running.
	ErrPlaying = intclock.ErrPlaying
)

// configError keeps the underlying cause while matching ErrConfiguration.
type configError struct {
	err error
}

func (e *configError) Error() string        { return "configuration: " + e.err.Error() }
func (e *configError) Unwrap() error        { return e.err }
func (e *configError) Is(target error) bool { return target == ErrConfiguration }

func configErr(err error) error {
	if err == nil {
		return nil
	}
	return &configError{err: err}
}
