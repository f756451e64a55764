package synth

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/castervoice/internal/audio"
	"github.com/nadzzz/castervoice/internal/emotion"
	"github.com/nadzzz/castervoice/internal/message"
	"github.com/nadzzz/castervoice/internal/tts"
)

func sineWave(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/audio.SampleRate))
	}
	return out
}

// recorder is a deterministic generator that remembers every prompt.
type recorder struct {
	prompts []string
	wave    *audio.Waveform
	err     error
}

func (r *recorder) generator() tts.Generator {
	return tts.GeneratorFunc(func(_ context.Context, prompt string) (*audio.Waveform, error) {
		r.prompts = append(r.prompts, prompt)
		return r.wave, r.err
	})
}

type failingEncoder struct{}

func (failingEncoder) ContentType() string { return audio.ContentTypeWAV }
func (failingEncoder) Encode(io.Writer, []float32, int) error {
	return errors.New("disk on fire")
}

func TestSynthesize_ComposesPromptPerEmotion(t *testing.T) {
	rec := &recorder{wave: &audio.Waveform{Samples: []float32{0}, SampleRate: audio.SampleRate}}
	svc := New(rec.generator(), audio.Float32Encoder{})

	for _, e := range emotion.All() {
		res, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "gg well played", Emotion: e.String()})
		require.NoError(t, err)
		assert.Equal(t, e, res.Emotion)
		assert.Equal(t, e.Prefix()+" gg well played", res.Prompt)
	}
	require.Len(t, rec.prompts, 3)
	assert.Equal(t, "Excited esports commentator voice. High energy. Crowd roaring. gg well played", rec.prompts[0])
	assert.Equal(t, "Low, tense esports caster voice. Controlled breathing. gg well played", rec.prompts[1])
	assert.Equal(t, "Calm analyst voice. Confident and composed. gg well played", rec.prompts[2])
}

func TestSynthesize_UnknownEmotionLeadingSpace(t *testing.T) {
	rec := &recorder{wave: &audio.Waveform{Samples: []float32{0}}}
	svc := New(rec.generator(), audio.PCM16Encoder{})

	res, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "what a play", Emotion: "joyful"})
	require.NoError(t, err)
	assert.Equal(t, emotion.Unknown, res.Emotion)
	assert.Equal(t, []string{" what a play"}, rec.prompts)
}

func TestSynthesize_EmptyText(t *testing.T) {
	rec := &recorder{wave: &audio.Waveform{Samples: []float32{}}}
	svc := New(rec.generator(), audio.PCM16Encoder{})

	_, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "", Emotion: "hype"})
	require.NoError(t, err)
	assert.Equal(t, []string{emotion.Hype.Prefix() + " "}, rec.prompts)
}

func TestSynthesize_EncodesAt24kExactly(t *testing.T) {
	samples := sineWave(audio.SampleRate)
	rec := &recorder{wave: &audio.Waveform{Samples: samples, SampleRate: audio.SampleRate}}
	svc := New(rec.generator(), audio.Float32Encoder{})

	res, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "gg well played", Emotion: "calm"})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", res.ContentType)
	assert.Equal(t, audio.SampleRate, res.SampleRate)

	wf, err := audio.DecodeWAV(res.Audio)
	require.NoError(t, err)
	assert.Equal(t, audio.SampleRate, wf.SampleRate)
	assert.Equal(t, samples, wf.Samples)
}

func TestSynthesize_ResamplesNativeRate(t *testing.T) {
	rec := &recorder{wave: &audio.Waveform{Samples: make([]float32, 22050), SampleRate: 22050}}
	svc := New(rec.generator(), audio.PCM16Encoder{})

	res, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "x", Emotion: "tense"})
	require.NoError(t, err)

	wf, err := audio.DecodeWAV(res.Audio)
	require.NoError(t, err)
	assert.Equal(t, audio.SampleRate, wf.SampleRate)
	assert.Len(t, wf.Samples, audio.SampleRate)
}

func TestSynthesize_GenerationFailure(t *testing.T) {
	cause := errors.New("model exploded")
	rec := &recorder{err: cause}
	svc := New(rec.generator(), audio.PCM16Encoder{})

	res, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "x", Emotion: "hype"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, cause)
}

func TestSynthesize_NilWaveform(t *testing.T) {
	rec := &recorder{}
	svc := New(rec.generator(), audio.PCM16Encoder{})

	_, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestSynthesize_EncodingFailure(t *testing.T) {
	rec := &recorder{wave: &audio.Waveform{Samples: []float32{0.1}}}
	svc := New(rec.generator(), failingEncoder{})

	_, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "x", Emotion: "calm"})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestSynthesize_MalformedWaveform(t *testing.T) {
	rec := &recorder{wave: &audio.Waveform{Samples: []float32{float32(math.NaN())}}}
	svc := New(rec.generator(), audio.PCM16Encoder{})

	_, err := svc.Synthesize(context.Background(), &message.SynthesisRequest{Text: "x", Emotion: "calm"})
	assert.ErrorIs(t, err, ErrEncoding)
	assert.ErrorIs(t, err, audio.ErrMalformedWaveform)
}
