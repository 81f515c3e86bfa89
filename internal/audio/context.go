package audio

import (
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/pkg/errors"
)

// DefaultSampleRate is the rate every sample is resampled to before playback.
const DefaultSampleRate = 48000

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide ebiten audio context. ebiten
// allows only one, so every bank must agree on the sample rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.CurrentContext()
		if audioContext == nil {
			audioContext = ebitaudio.NewContext(sampleRate)
		}
		audioSampleRate = audioContext.SampleRate()
	})
	if audioSampleRate != sampleRate {
		return nil, errors.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// ebitenVoice opens a one-shot player on the shared context.
func ebitenVoice(sampleRate int) VoiceFactory {
	return func(pcm []byte) (Voice, error) {
		ctx, err := sharedAudioContext(sampleRate)
		if err != nil {
			return nil, err
		}
		return ctx.NewPlayerF32FromBytes(pcm), nil
	}
}
