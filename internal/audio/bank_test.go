package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"

	"github.com/cbegin/stepseq-go/internal/pattern"
)

// writeTone writes a mono 16-bit sine burst to dir/name.
func writeTone(t *testing.T, dir, name string, rate beep.SampleRate, frames int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	pos := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := 0.5 * math.Sin(2*math.Pi*220*float64(pos)/float64(rate))
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})
	format := beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Take(frames, tone), format); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

type fakeVoice struct {
	plays     int
	pauses    int
	rewinds   int
	volume    float64
	closed    bool
	pcmLength int
}

func (v *fakeVoice) Play() { v.plays++ }
func (v *fakeVoice) Pause() { v.pauses++ }
func (v *fakeVoice) SetVolume(vol float64) { v.volume = vol }
func (v *fakeVoice) Close() error { v.closed = true; return nil }
func (v *fakeVoice) SetPosition(offset time.Duration) error {
	if offset == 0 {
		v.rewinds++
	}
	return nil
}

func newFakeBank(rate int) (*Bank, *[]*fakeVoice) {
	var voices []*fakeVoice
	b := NewBankWith(rate, func(pcm []byte) (Voice, error) {
		v := &fakeVoice{pcmLength: len(pcm)}
		voices = append(voices, v)
		return v, nil
	})
	return b, &voices
}

func TestLoadSampleResamples(t *testing.T) {
	dir := t.TempDir()
	path := writeTone(t, dir, "tone.wav", 44100, 4410)

	s, err := LoadSample(path, 48000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.SampleRate != 48000 || s.Path != path {
		t.Fatalf("unexpected sample header: rate=%d path=%q", s.SampleRate, s.Path)
	}
	// 100ms of audio at 48kHz is 4800 frames; allow slack for the resampler edges.
	if n := s.FrameCount(); n < 4700 || n > 4900 {
		t.Fatalf("frame count = %d, want about 4800", n)
	}
	var energy float64
	for _, v := range s.Frames {
		energy += math.Abs(float64(v))
	}
	if energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
	if d := s.Duration(); d < 95*time.Millisecond || d > 105*time.Millisecond {
		t.Fatalf("duration = %v, want about 100ms", d)
	}
}

func TestLoadSampleErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSample(filepath.Join(dir, "missing.wav"), 48000); !errors.Is(err, ErrLoad) {
		t.Fatalf("missing file: expected ErrLoad, got %v", err)
	}
	corrupt := filepath.Join(dir, "corrupt.wav")
	if err := os.WriteFile(corrupt, []byte("definitely not RIFF data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSample(corrupt, 48000); !errors.Is(err, ErrLoad) {
		t.Fatalf("corrupt file: expected ErrLoad, got %v", err)
	}
}

func TestBankTriggerRestartsVoice(t *testing.T) {
	dir := t.TempDir()
	path := writeTone(t, dir, "kick.wav", 48000, 480)
	b, voices := newFakeBank(48000)
	if err := b.Load(pattern.Kick, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !b.Loaded(pattern.Kick) || b.Loaded(pattern.HiHat) {
		t.Fatalf("unexpected loaded state")
	}
	if len(*voices) != 1 || (*voices)[0].pcmLength != 480*2*4 {
		t.Fatalf("expected one voice with 480 stereo float32 frames")
	}
	for i := 0; i < 3; i++ {
		if err := b.Trigger(pattern.Kick, 0.9); err != nil {
			t.Fatalf("trigger: %v", err)
		}
	}
	v := (*voices)[0]
	if v.plays != 3 || v.rewinds != 3 || v.volume != 0.9 {
		t.Fatalf("voice state %+v, want 3 rewinds and plays at 0.9", v)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !v.closed {
		t.Fatalf("voice not closed")
	}
}

func TestBankTriggerUnloadedTrack(t *testing.T) {
	b, _ := newFakeBank(48000)
	if err := b.Trigger(pattern.Clap, 1); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if err := b.Trigger(pattern.Track(9), 1); !errors.Is(err, pattern.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, DefaultFiles[pattern.Kick], 48000, 480)
	writeTone(t, dir, DefaultFiles[pattern.HiHat], 22050, 220)

	b, _ := newFakeBank(48000)
	if _, err := b.LoadDir(dir, false); !errors.Is(err, ErrLoad) {
		t.Fatalf("strict load should fail on missing clap, got %v", err)
	}

	b, _ = newFakeBank(48000)
	failed, err := b.LoadDir(dir, true)
	if err != nil {
		t.Fatalf("lenient load: %v", err)
	}
	if len(failed) != 1 || failed[pattern.Clap] == nil {
		t.Fatalf("failed = %v, want only clap", failed)
	}
	if !b.Loaded(pattern.Kick) || !b.Loaded(pattern.HiHat) || b.Loaded(pattern.Clap) {
		t.Fatalf("unexpected loaded tracks")
	}
}

func TestSetRejectsRateMismatch(t *testing.T) {
	b, _ := newFakeBank(48000)
	s := &Sample{SampleRate: 44100, Frames: []float32{0, 0}}
	if err := b.Set(pattern.Kick, s); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}
