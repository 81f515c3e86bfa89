package audio

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cbegin/stepseq-go/internal/pattern"
)

// DefaultFiles are the sample file names looked up in the sample directory.
var DefaultFiles = map[pattern.Track]string{
	pattern.Kick:  "kick-808.wav",
	pattern.HiHat: "hihat-electro.wav",
	pattern.Clap:  "clap.wav",
}

// Voice is the subset of *ebiten/audio.Player a bank needs.
type Voice interface {
	Play()
	Pause()
	SetVolume(volume float64)
	SetPosition(offset time.Duration) error
	Close() error
}

// VoiceFactory opens a player over little-endian float32 stereo PCM.
type VoiceFactory func(pcm []byte) (Voice, error)

// Bank holds one loaded sample and one player per track. Triggering a track
// restarts its player, so a track never overlaps itself.
type Bank struct {
	mu         sync.Mutex
	sampleRate int
	newVoice   VoiceFactory
	samples    [pattern.NumTracks]*Sample
	voices     [pattern.NumTracks]Voice
}

// NewBank returns a bank that plays through the shared ebiten audio context.
func NewBank(sampleRate int) *Bank {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return NewBankWith(sampleRate, ebitenVoice(sampleRate))
}

// NewBankWith returns a bank that opens its players with newVoice.
func NewBankWith(sampleRate int, newVoice VoiceFactory) *Bank {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Bank{sampleRate: sampleRate, newVoice: newVoice}
}

func (b *Bank) SampleRate() int { return b.sampleRate }

// Load decodes the file at path and binds it to track, replacing any sample
// loaded before.
func (b *Bank) Load(track pattern.Track, path string) error {
	if !track.Valid() {
		return errors.Wrapf(pattern.ErrOutOfRange, "unknown track %d", int(track))
	}
	s, err := LoadSample(path, b.sampleRate)
	if err != nil {
		return err
	}
	return b.Set(track, s)
}

// LoadDir loads DefaultFiles from dir for every track. It stops at the first
// failure unless keepGoing is set, in which case every failure is returned
// keyed by track.
func (b *Bank) LoadDir(dir string, keepGoing bool) (map[pattern.Track]error, error) {
	failed := map[pattern.Track]error{}
	for _, track := range pattern.Tracks() {
		err := b.Load(track, filepath.Join(dir, DefaultFiles[track]))
		if err == nil {
			continue
		}
		if !keepGoing {
			return nil, err
		}
		failed[track] = err
	}
	return failed, nil
}

// Set binds an already decoded sample to track.
func (b *Bank) Set(track pattern.Track, s *Sample) error {
	if !track.Valid() {
		return errors.Wrapf(pattern.ErrOutOfRange, "unknown track %d", int(track))
	}
	if s == nil || len(s.Frames) == 0 {
		return errors.Wrapf(ErrLoad, "%s: empty sample", track)
	}
	if s.SampleRate != b.sampleRate {
		return errors.Wrapf(ErrLoad, "%s: sample is %d Hz, bank runs at %d Hz", track, s.SampleRate, b.sampleRate)
	}
	v, err := b.newVoice(encodeF32(s.Frames))
	if err != nil {
		return errors.Wrapf(ErrLoad, "%s: open player: %v", track, err)
	}
	b.mu.Lock()
	old := b.voices[track]
	b.samples[track] = s
	b.voices[track] = v
	b.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Loaded reports whether track has a sample.
func (b *Bank) Loaded(track pattern.Track) bool {
	if !track.Valid() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.voices[track] != nil
}

// Sample returns the sample bound to track, or nil.
func (b *Bank) Sample(track pattern.Track) *Sample {
	if !track.Valid() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.samples[track]
}

// Trigger plays track's sample from the start at volume (0..1). It returns
// immediately; playback runs on the audio driver.
func (b *Bank) Trigger(track pattern.Track, volume float64) error {
	if !track.Valid() {
		return errors.Wrapf(pattern.ErrOutOfRange, "unknown track %d", int(track))
	}
	b.mu.Lock()
	v := b.voices[track]
	b.mu.Unlock()
	if v == nil {
		return errors.Wrapf(ErrLoad, "%s: no sample loaded", track)
	}
	v.Pause()
	if err := v.SetPosition(0); err != nil {
		return errors.Wrapf(err, "%s: rewind", track)
	}
	v.SetVolume(volume)
	v.Play()
	return nil
}

// Close releases every player.
func (b *Bank) Close() error {
	b.mu.Lock()
	voices := b.voices
	b.voices = [pattern.NumTracks]Voice{}
	b.mu.Unlock()
	var first error
	for _, v := range voices {
		if v == nil {
			continue
		}
		if err := v.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
