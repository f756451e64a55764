package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ContentTypeWAV is the media type of every encoded response.
const ContentTypeWAV = "audio/wav"

// WAV sample formats.
const (
	SubtypePCM16   = "pcm16"
	SubtypeFloat32 = "float32"
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3

	pcm16Scale = 32767
)

// ErrMalformedWaveform is returned when a waveform holds NaN or infinite
// samples and cannot be framed.
var ErrMalformedWaveform = errors.New("malformed waveform")

// Encoder frames a waveform as an audio file.
type Encoder interface {
	// ContentType is the media type of the encoded bytes.
	ContentType() string

	// Encode writes samples as a complete file at sampleRate.
	Encode(w io.Writer, samples []float32, sampleRate int) error
}

// NewEncoder returns the WAV encoder for the given subtype. An empty
// subtype selects 16-bit PCM.
func NewEncoder(subtype string) (Encoder, error) {
	switch subtype {
	case "", SubtypePCM16:
		return PCM16Encoder{}, nil
	case SubtypeFloat32:
		return Float32Encoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported wav subtype %q", subtype)
	}
}

// PCM16Encoder writes mono 16-bit PCM WAV. Samples outside [-1, 1] are clipped.
type PCM16Encoder struct{}

// ContentType implements Encoder.
func (PCM16Encoder) ContentType() string { return ContentTypeWAV }

// Encode implements Encoder.
func (PCM16Encoder) Encode(w io.Writer, samples []float32, sampleRate int) error {
	if err := checkFinite(samples); err != nil {
		return err
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Round(float64(clip(s)) * pcm16Scale)
		binary.LittleEndian.PutUint16(data[2*i:], uint16(int16(v)))
	}

	buf := &bytes.Buffer{}
	buf.Grow(44 + len(data))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	writeFormat(buf, formatPCM, sampleRate, 2)

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	_, err := w.Write(buf.Bytes())
	return err
}

// Float32Encoder writes mono 32-bit IEEE float WAV. Samples are stored
// unchanged, so decoding returns them bit for bit.
type Float32Encoder struct{}

// ContentType implements Encoder.
func (Float32Encoder) ContentType() string { return ContentTypeWAV }

// Encode implements Encoder.
func (Float32Encoder) Encode(w io.Writer, samples []float32, sampleRate int) error {
	if err := checkFinite(samples); err != nil {
		return err
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	dataLen := 4 * len(samples)

	buf := &bytes.Buffer{}
	buf.Grow(58 + dataLen)

	// Non-PCM formats carry an 18-byte fmt chunk and a fact chunk.
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(50+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(18))
	writeFormat(buf, formatIEEEFloat, sampleRate, 4)
	_ = binary.Write(buf, binary.LittleEndian, uint16(0)) // cbSize

	buf.WriteString("fact")
	_ = binary.Write(buf, binary.LittleEndian, uint32(4))
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(samples)))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	_ = binary.Write(buf, binary.LittleEndian, samples)

	_, err := w.Write(buf.Bytes())
	return err
}

func writeFormat(buf *bytes.Buffer, format uint16, sampleRate, bytesPerSample int) {
	const channels = 1
	_ = binary.Write(buf, binary.LittleEndian, format)
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample)) // byte rate
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))            // block align
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))                   // bits per sample
}

// DecodeWAV parses a mono 16-bit PCM or 32-bit float WAV file.
func DecodeWAV(data []byte) (*Waveform, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var (
		format, channels, bits uint16
		rate                   uint32
		haveFmt                bool
	)

	rest := data[12:]
	for len(rest) >= 8 {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		rest = rest[8:]
		if size > len(rest) {
			return nil, fmt.Errorf("chunk %q truncated: want %d bytes, have %d", id, size, len(rest))
		}
		body := rest[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d", size)
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = binary.LittleEndian.Uint16(body[2:4])
			rate = binary.LittleEndian.Uint32(body[4:8])
			bits = binary.LittleEndian.Uint16(body[14:16])
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, errors.New("data chunk before fmt chunk")
			}
			if channels != 1 {
				return nil, fmt.Errorf("unsupported channel count %d", channels)
			}
			switch {
			case format == formatPCM && bits == 16:
				return &Waveform{Samples: PCM16ToFloat(body), SampleRate: int(rate)}, nil
			case format == formatIEEEFloat && bits == 32:
				samples := make([]float32, size/4)
				for i := range samples {
					samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
				}
				return &Waveform{Samples: samples, SampleRate: int(rate)}, nil
			default:
				return nil, fmt.Errorf("unsupported wav format %d with %d bits", format, bits)
			}
		}

		// Chunks are word aligned.
		if size%2 == 1 && size < len(rest) {
			size++
		}
		rest = rest[size:]
	}

	return nil, errors.New("no data chunk")
}

func checkFinite(samples []float32) error {
	for i, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: sample %d is %v", ErrMalformedWaveform, i, s)
		}
	}
	return nil
}

func clip(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
