// Package audio holds the in-memory waveform produced by a speech generator
// and the WAV framing used to ship it to callers.
package audio

import (
	"fmt"
	"time"
)

// SampleRate is the rate every response is encoded at.
const SampleRate = 24000

// Waveform is a mono buffer of samples nominally in [-1, 1].
type Waveform struct {
	Samples []float32

	// SampleRate is the native rate reported by the generator. Zero means
	// the generator did not say and SampleRate (24 kHz) is assumed.
	SampleRate int
}

// Rate returns the effective sample rate of the waveform.
func (w *Waveform) Rate() int {
	if w.SampleRate <= 0 {
		return SampleRate
	}
	return w.SampleRate
}

// Duration returns the playback length of the waveform.
func (w *Waveform) Duration() time.Duration {
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.Rate())
}

// To returns the waveform at the given rate, resampling when needed.
func (w *Waveform) To(rate int) (*Waveform, error) {
	if w.Rate() == rate {
		return &Waveform{Samples: w.Samples, SampleRate: rate}, nil
	}
	out, err := Resample(w.Samples, w.Rate(), rate)
	if err != nil {
		return nil, fmt.Errorf("resampling %d Hz to %d Hz: %w", w.Rate(), rate, err)
	}
	return &Waveform{Samples: out, SampleRate: rate}, nil
}

// Resample converts samples between rates using linear interpolation.
func Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", fromRate, toRate)
	}
	if fromRate == toRate {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}

	n := len(samples)
	if n == 0 {
		return []float32{}, nil
	}

	outLen := int(float64(n) * float64(toRate) / float64(fromRate))
	out := make([]float32, outLen)
	ratio := float64(fromRate) / float64(toRate)

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		if idx >= n-1 {
			out[i] = samples[n-1]
			continue
		}
		s0 := float64(samples[idx])
		s1 := float64(samples[idx+1])
		out[i] = float32(s0 + frac*(s1-s0))
	}

	return out, nil
}

// PCM16ToFloat decodes little-endian signed 16-bit PCM into samples.
// A trailing odd byte is ignored.
func PCM16ToFloat(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		out[i] = float32(v) / pcm16Scale
	}
	return out
}
