// Package bark implements the TTS Generator against a bark inference server.
//
// The server hosts the bark model and exposes two JSON endpoints:
//
//	POST /preload   loads model weights; any 2xx means ready
//	POST /generate  {"prompt": "..."} -> {"sample_rate": 24000, "samples": [...]}
//
// Generation runs to completion; no client timeout is applied because bark
// inference time grows with prompt length.
package bark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/nadzzz/castervoice/internal/audio"
	"github.com/nadzzz/castervoice/internal/config"
	"github.com/nadzzz/castervoice/internal/tts"
)

// Generator calls a remote bark server.
type Generator struct {
	endpoint  string
	client    *http.Client
	preloaded atomic.Bool
}

// New creates a bark generator from config.
func New(cfg config.BarkConfig) *Generator {
	return &Generator{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		client:   &http.Client{},
	}
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "bark" }

// Preload asks the server to load the model and waits for it.
func (g *Generator) Preload(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/preload", nil)
	if err != nil {
		return fmt.Errorf("creating preload request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("bark preload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bark preload failed (status %d)", resp.StatusCode)
	}

	g.preloaded.Store(true)
	slog.Info("bark model preloaded", "endpoint", g.endpoint)
	return nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	SampleRate int       `json:"sample_rate"`
	Samples    []float32 `json:"samples"`
}

// Generate sends the prompt to the bark server and returns the waveform.
func (g *Generator) Generate(ctx context.Context, prompt string) (*audio.Waveform, error) {
	if !g.preloaded.Load() {
		return nil, tts.ErrNotPreloaded
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("bark generate", "prompt_length", len(prompt))

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bark generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("bark generate failed (status %d): %s", resp.StatusCode, respBody)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding bark response: %w", err)
	}

	slog.Debug("bark generate complete", "samples", len(out.Samples), "sample_rate", out.SampleRate)
	return &audio.Waveform{Samples: out.Samples, SampleRate: out.SampleRate}, nil
}

// Close is a no-op; the server owns the model.
func (g *Generator) Close() error { return nil }
