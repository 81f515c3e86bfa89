package audio

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"
)

// ErrLoad marks a sample that is missing or cannot be decoded.
var ErrLoad = errors.New("sample load failed")

// resampleQuality is beep's interpolation quality (1 = linear, up to 64).
const resampleQuality = 4

// Sample is a decoded one-shot clip as interleaved stereo float32 frames at
// SampleRate.
type Sample struct {
	Path       string
	SampleRate int
	Frames     []float32
}

// FrameCount returns the number of stereo frames.
func (s *Sample) FrameCount() int {
	return len(s.Frames) / 2
}

func (s *Sample) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.FrameCount()) * time.Second / time.Duration(s.SampleRate)
}

// LoadSample reads a WAV file and converts it to sampleRate.
func LoadSample(path string, sampleRate int) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "open %s: %v", path, err)
	}
	defer f.Close()
	s, err := DecodeSample(f, sampleRate)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	s.Path = path
	return s, nil
}

// DecodeSample decodes WAV data from r and converts it to sampleRate.
func DecodeSample(r io.Reader, sampleRate int) (*Sample, error) {
	if sampleRate <= 0 {
		return nil, errors.Wrapf(ErrLoad, "sample rate %d must be positive", sampleRate)
	}
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "decode wav: %v", err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	target := beep.SampleRate(sampleRate)
	if format.SampleRate != target {
		src = beep.Resample(resampleQuality, format.SampleRate, target, streamer)
	}

	frames, err := drain(src)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "read frames: %v", err)
	}
	if len(frames) == 0 {
		return nil, errors.Wrap(ErrLoad, "no audio frames")
	}
	return &Sample{SampleRate: sampleRate, Frames: frames}, nil
}

func drain(s beep.Streamer) ([]float32, error) {
	buf := make([][2]float64, 512)
	var out []float32
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, float32(buf[i][0]), float32(buf[i][1]))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeF32 packs frames as little-endian float32, the layout ebiten's F32
// players read.
func encodeF32(frames []float32) []byte {
	out := make([]byte, len(frames)*4)
	for i, v := range frames {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
