// Package openai implements the TTS Generator using OpenAI's speech API.
//
// Audio is requested as raw PCM (24 kHz, 16-bit little-endian, mono), which
// already matches the response rate so no resampling is needed.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/castervoice/internal/audio"
	"github.com/nadzzz/castervoice/internal/config"
)

const pcmRate = 24000

// Generator uses the OpenAI speech endpoint as the model.
type Generator struct {
	apiKey string
	model  string
	voice  string
	client *goopenai.Client
}

// New creates a new OpenAI generator from config.
func New(cfg config.OpenAIConfig) *Generator {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return &Generator{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		voice:  cfg.Voice,
		client: goopenai.NewClientWithConfig(clientCfg),
	}
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "openai" }

// Preload checks that credentials are present. The hosted model needs no
// warm-up.
func (g *Generator) Preload(context.Context) error {
	if g.apiKey == "" {
		return errors.New("openai api key not set")
	}
	slog.Info("openai speech ready", "model", g.model, "voice", g.voice)
	return nil
}

// Generate sends the prompt to the speech API and decodes the PCM response.
func (g *Generator) Generate(ctx context.Context, prompt string) (*audio.Waveform, error) {
	resp, err := g.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(g.model),
		Input:          prompt,
		Voice:          goopenai.SpeechVoice(g.voice),
		ResponseFormat: goopenai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}

	slog.Debug("openai speech complete", "pcm_bytes", len(pcm))
	return &audio.Waveform{Samples: audio.PCM16ToFloat(pcm), SampleRate: pcmRate}, nil
}

// Close is a no-op for the OpenAI generator.
func (g *Generator) Close() error { return nil }
