// Castervoice is a speech synthesis service that voices esports commentary
// in one of a few caster tones.
//
// Usage:
//
//	castervoice [flags]
//	castervoice --config /path/to/castervoice.yaml
//
// @title       castervoice API
// @version     1.0
// @description Emotion-conditioned caster speech synthesis.
// @BasePath    /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nadzzz/castervoice/internal/audio"
	"github.com/nadzzz/castervoice/internal/config"
	"github.com/nadzzz/castervoice/internal/health"
	"github.com/nadzzz/castervoice/internal/metrics"
	"github.com/nadzzz/castervoice/internal/synth"
	"github.com/nadzzz/castervoice/internal/transport"
	grpctransport "github.com/nadzzz/castervoice/internal/transport/grpc"
	httptransport "github.com/nadzzz/castervoice/internal/transport/http"
	"github.com/nadzzz/castervoice/internal/tts"
	"github.com/nadzzz/castervoice/internal/tts/bark"
	"github.com/nadzzz/castervoice/internal/tts/openai"
	"github.com/nadzzz/castervoice/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/castervoice.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("castervoice %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("castervoice starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start the health server first so liveness probes pass while the model loads.
	healthServer := health.New(cfg.Server.HealthPort, metrics.NewRegistry())
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Initialize the speech model backend.
	gen := newGenerator(cfg.Generator)
	defer gen.Close()

	// Load model weights once, before any request is accepted.
	slog.Info("preloading speech model", "backend", gen.Name())
	if err := gen.Preload(ctx); err != nil {
		slog.Error("failed to preload speech model", "backend", gen.Name(), "error", err)
		os.Exit(1)
	}

	encoder, err := audio.NewEncoder(cfg.Audio.Subtype)
	if err != nil {
		slog.Error("invalid audio encoder", "error", err)
		os.Exit(1)
	}

	svc := synth.New(gen, encoder)

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, svc.Synthesize); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("castervoice ready",
		"backend", gen.Name(),
		"audio_subtype", cfg.Audio.Subtype,
		"sample_rate", audio.SampleRate,
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	healthServer.SetReady(false)
	slog.Info("shutdown signal received, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("castervoice stopped")
}

// newGenerator builds the backend named in cfg. Config validation has
// already rejected unknown names.
func newGenerator(cfg config.GeneratorConfig) tts.Generator {
	switch cfg.Backend {
	case "piper":
		slog.Info("using piper speech model", "endpoint", cfg.Piper.Endpoint, "voice", cfg.Piper.Voice)
		return piper.New(cfg.Piper)
	case "openai":
		slog.Info("using OpenAI speech model", "model", cfg.OpenAI.Model, "voice", cfg.OpenAI.Voice)
		return openai.New(cfg.OpenAI)
	default:
		slog.Info("using bark speech model", "endpoint", cfg.Bark.Endpoint)
		return bark.New(cfg.Bark)
	}
}
