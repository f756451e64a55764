package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestFloat32Encoder_RoundTripIsExact(t *testing.T) {
	samples := sine(SampleRate, SampleRate, 440)

	var buf bytes.Buffer
	require.NoError(t, Float32Encoder{}.Encode(&buf, samples, SampleRate))

	wf, err := DecodeWAV(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, SampleRate, wf.SampleRate)
	assert.Equal(t, samples, wf.Samples)
}

func TestPCM16Encoder_Header(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}

	var buf bytes.Buffer
	require.NoError(t, PCM16Encoder{}.Encode(&buf, samples, SampleRate))
	b := buf.Bytes()

	require.Len(t, b, 44+2*len(samples))
	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, uint32(36+2*len(samples)), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, "WAVE", string(b[8:12]))
	assert.Equal(t, "fmt ", string(b[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[22:24]))
	assert.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, uint32(SampleRate*2), binary.LittleEndian.Uint32(b[28:32]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(b[34:36]))
	assert.Equal(t, "data", string(b[36:40]))
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(b[50:52])))
}

func TestPCM16Encoder_RoundTripWithinQuantization(t *testing.T) {
	samples := sine(2400, SampleRate, 220)

	var buf bytes.Buffer
	require.NoError(t, PCM16Encoder{}.Encode(&buf, samples, SampleRate))

	wf, err := DecodeWAV(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, wf.Samples, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], wf.Samples[i], 1.0/pcm16Scale)
	}
}

func TestPCM16Encoder_Clips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PCM16Encoder{}.Encode(&buf, []float32{3, -3}, SampleRate))

	wf, err := DecodeWAV(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -1}, wf.Samples)
}

func TestEncoders_RejectNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	for _, enc := range []Encoder{PCM16Encoder{}, Float32Encoder{}} {
		err := enc.Encode(&bytes.Buffer{}, []float32{0, nan}, SampleRate)
		assert.ErrorIs(t, err, ErrMalformedWaveform)

		err = enc.Encode(&bytes.Buffer{}, []float32{inf}, SampleRate)
		assert.ErrorIs(t, err, ErrMalformedWaveform)
	}
}

func TestEncoders_EmptyWaveform(t *testing.T) {
	for _, enc := range []Encoder{PCM16Encoder{}, Float32Encoder{}} {
		var buf bytes.Buffer
		require.NoError(t, enc.Encode(&buf, nil, SampleRate))

		wf, err := DecodeWAV(buf.Bytes())
		require.NoError(t, err)
		assert.Empty(t, wf.Samples)
		assert.Equal(t, SampleRate, wf.SampleRate)
	}
}

func TestNewEncoder(t *testing.T) {
	enc, err := NewEncoder("")
	require.NoError(t, err)
	assert.IsType(t, PCM16Encoder{}, enc)

	enc, err = NewEncoder(SubtypeFloat32)
	require.NoError(t, err)
	assert.IsType(t, Float32Encoder{}, enc)
	assert.Equal(t, "audio/wav", enc.ContentType())

	_, err = NewEncoder("mp3")
	assert.Error(t, err)
}

func TestDecodeWAV_Errors(t *testing.T) {
	_, err := DecodeWAV([]byte("not a wav"))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, PCM16Encoder{}.Encode(&buf, []float32{0.1, 0.2}, SampleRate))
	_, err = DecodeWAV(buf.Bytes()[:46])
	assert.Error(t, err)
}

func TestResample(t *testing.T) {
	in := sine(22050, 22050, 100)

	out, err := Resample(in, 22050, SampleRate)
	require.NoError(t, err)
	assert.Len(t, out, SampleRate)
	assert.Equal(t, in[0], out[0])

	same, err := Resample(in, 22050, 22050)
	require.NoError(t, err)
	assert.Equal(t, in, same)

	_, err = Resample(in, 0, SampleRate)
	assert.Error(t, err)

	empty, err := Resample(nil, 22050, SampleRate)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWaveform_To(t *testing.T) {
	wf := &Waveform{Samples: make([]float32, 100)}
	assert.Equal(t, SampleRate, wf.Rate())

	same, err := wf.To(SampleRate)
	require.NoError(t, err)
	assert.Equal(t, wf.Samples, same.Samples)

	piper := &Waveform{Samples: make([]float32, 22050), SampleRate: 22050}
	assert.Equal(t, time.Second, piper.Duration())
	up, err := piper.To(SampleRate)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, up.SampleRate)
	assert.Len(t, up.Samples, SampleRate)
}

func TestPCM16ToFloat(t *testing.T) {
	pcm := []byte{0xff, 0x7f, 0x01, 0x80, 0x00, 0x00, 0x42}
	got := PCM16ToFloat(pcm)
	require.Len(t, got, 3)
	assert.Equal(t, float32(1), got[0])
	assert.Equal(t, float32(-1), got[1])
	assert.Equal(t, float32(0), got[2])
}
