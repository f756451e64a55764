// Package tts defines the speech generation model used by castervoice.
//
// A Generator is constructed once at startup, preloaded once, and then
// shared read-only by every request for the lifetime of the process.
// Backends live in subpackages (bark, piper, openai).
package tts

import (
	"context"
	"errors"

	"github.com/nadzzz/castervoice/internal/audio"
)

// ErrNotPreloaded is returned by Generate when Preload has not succeeded.
var ErrNotPreloaded = errors.New("generator not preloaded")

// Generator turns a prompt into a waveform.
type Generator interface {
	// Name returns the backend identifier (e.g., "bark", "piper", "openai").
	Name() string

	// Preload prepares the model for use. It is called once at startup,
	// before any call to Generate.
	Preload(ctx context.Context) error

	// Generate synthesizes the prompt, blocking until the full waveform is
	// available.
	Generate(ctx context.Context, prompt string) (*audio.Waveform, error)

	// Close releases any resources held by the generator.
	Close() error
}

// GeneratorFunc adapts a plain function to Generator. Preload and Close are
// no-ops.
type GeneratorFunc func(ctx context.Context, prompt string) (*audio.Waveform, error)

// Name implements Generator.
func (f GeneratorFunc) Name() string { return "func" }

// Preload implements Generator.
func (f GeneratorFunc) Preload(context.Context) error { return nil }

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (*audio.Waveform, error) {
	return f(ctx, prompt)
}

// Close implements Generator.
func (f GeneratorFunc) Close() error { return nil }
