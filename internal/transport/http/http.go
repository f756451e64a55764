// Package http implements the HTTP transport for castervoice.
//
// It exposes POST /tts, which returns synthesized speech as a WAV body, and
// the swagger UI for the generated OpenAPI document.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/castervoice/docs" // registers the OpenAPI document
	"github.com/nadzzz/castervoice/internal/message"
	"github.com/nadzzz/castervoice/internal/transport"
)

const maxBodyBytes = 25 << 20

// RequestIDHeader carries the per-request UUID on responses.
const RequestIDHeader = "X-Request-Id"

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port int

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a new HTTP transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	// No write timeout: a synthesis call may run as long as the model needs.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           NewHandler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.server = server
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// NewHandler builds the routes served by the transport.
func NewHandler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, r *http.Request) {
		handleTTS(w, r, handler)
	})

	// Swagger UI serves the registered OpenAPI document.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return recoverer(mux)
}

// handleTTS processes a POST /tts request.
//
// @Summary     Synthesize caster speech
// @Description Prefixes the text with the tone for the chosen emotion, runs the speech model,
// @Description and returns the audio as a 24 kHz WAV file. Unrecognized emotions add no prefix.
// @Tags        tts
// @Accept      json
// @Produce     audio/wav
// @Param       request  body      message.SynthesisRequest  true  "Text and emotion (hype, tense, calm; default hype)"
// @Success     200      {file}    binary  "WAV audio at 24000 Hz"
// @Failure     413      {string}  string  "Body too large"
// @Failure     422      {string}  string  "Body is not a valid synthesis request"
// @Failure     500      {string}  string  "Synthesis failed"
// @Router      /tts [post]
func handleTTS(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	id := uuid.NewString()
	w.Header().Set(RequestIDHeader, id)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req, err := message.ParseSynthesisRequest(body)
	if err != nil {
		slog.Debug("rejecting tts request", "request_id", id, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	req.ID = id

	result, err := handler(r.Context(), req)
	if err != nil {
		slog.Error("tts request failed", "request_id", id, "error", err)
		http.Error(w, "synthesis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		slog.Warn("writing tts response", "request_id", id, "error", err)
	}
}

// recoverer turns a panic in a handler into a 500 instead of a dropped connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic in http handler", "path", r.URL.Path, "panic", rec)
				http.Error(w, "synthesis failed", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Close gracefully shuts down the HTTP server. A transport closed before
// Listen never starts.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	server := t.server
	t.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}
