// Package synth implements the synthesize operation: emotion prefix,
// model generation, and WAV encoding.
//
// A Service holds the process-wide generator and encoder. It has no mutable
// state, so one Service is shared by every transport and request.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nadzzz/castervoice/internal/audio"
	"github.com/nadzzz/castervoice/internal/emotion"
	"github.com/nadzzz/castervoice/internal/message"
	"github.com/nadzzz/castervoice/internal/metrics"
	"github.com/nadzzz/castervoice/internal/tts"
)

// Failure classes. Both surface to callers as a generic server error.
var (
	ErrGeneration = errors.New("speech generation failed")
	ErrEncoding   = errors.New("audio encoding failed")
)

// Service turns synthesis requests into encoded audio.
type Service struct {
	generator tts.Generator
	encoder   audio.Encoder
}

// New creates a Service. The generator must already be preloaded.
func New(generator tts.Generator, encoder audio.Encoder) *Service {
	return &Service{generator: generator, encoder: encoder}
}

// Synthesize runs one request through the pipeline. The call blocks until
// the model returns; no deadline is added beyond what ctx carries.
func (s *Service) Synthesize(ctx context.Context, req *message.SynthesisRequest) (*message.SynthesisResult, error) {
	start := time.Now()
	emo := emotion.Parse(req.Emotion)
	logger := slog.With("request_id", req.ID, "emotion", emo.String())

	if !emo.Known() {
		logger.Debug("unrecognized emotion, using empty prefix", "label", req.Emotion)
	}

	// Step 1: Compose the prompt.
	prompt := emo.Prompt(req.Text)
	logger.Info("synthesis started", "text_length", len(req.Text), "prompt_length", len(prompt))

	result, err := s.run(ctx, logger, prompt)
	if err != nil {
		metrics.ObserveSynthesis(emo.String(), metrics.StatusError, time.Since(start))
		return nil, err
	}
	result.Emotion = emo
	result.Prompt = prompt

	metrics.ObserveSynthesis(emo.String(), metrics.StatusSuccess, time.Since(start))
	logger.Info("synthesis complete", "duration", time.Since(start), "audio_bytes", len(result.Audio))
	return result, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, prompt string) (*message.SynthesisResult, error) {
	// Step 2: Generate the waveform.
	genStart := time.Now()
	wf, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("generation failed", "backend", s.generator.Name(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if wf == nil {
		logger.Error("generation returned no audio", "backend", s.generator.Name())
		return nil, fmt.Errorf("%w: %s returned no waveform", ErrGeneration, s.generator.Name())
	}
	metrics.ObserveGeneration(s.generator.Name(), time.Since(genStart), len(wf.Samples))
	logger.Debug("generation complete",
		"backend", s.generator.Name(),
		"samples", len(wf.Samples),
		"native_rate", wf.Rate(),
		"duration", time.Since(genStart))

	// Step 3: Bring the waveform to the response rate.
	out, err := wf.To(audio.SampleRate)
	if err != nil {
		logger.Error("resampling failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	// Step 4: Encode into an in-memory buffer.
	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, out.Samples, audio.SampleRate); err != nil {
		logger.Error("encoding failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return &message.SynthesisResult{
		Audio:       buf.Bytes(),
		ContentType: s.encoder.ContentType(),
		SampleRate:  audio.SampleRate,
	}, nil
}
