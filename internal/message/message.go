// Package message defines the request and result types flowing through
// the castervoice synthesis pipeline.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nadzzz/castervoice/internal/emotion"
)

// Schema errors returned by ParseSynthesisRequest.
var (
	ErrMissingText = errors.New(`field "text" is required`)
	ErrNullEmotion = errors.New(`field "emotion" must be a string`)
)

// SynthesisRequest is one text-to-speech call.
type SynthesisRequest struct {
	// ID is a unique identifier assigned by the transport (UUID).
	ID string `json:"-"`

	// Text is spoken after the emotion prefix. It may be empty.
	Text string `json:"text"`

	// Emotion selects the caster tone: "hype", "tense" or "calm". Other
	// labels are accepted and contribute no prefix.
	Emotion string `json:"emotion,omitempty" example:"hype"`
}

// wireRequest distinguishes absent members from empty ones.
type wireRequest struct {
	Text    *string         `json:"text"`
	Emotion json.RawMessage `json:"emotion"`
}

// ParseSynthesisRequest decodes a JSON request body. "text" must be present
// as a string; "emotion" defaults to "hype" when absent and must otherwise be
// a string.
func ParseSynthesisRequest(data []byte) (*SynthesisRequest, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if w.Text == nil {
		return nil, ErrMissingText
	}

	req := &SynthesisRequest{
		Text:    *w.Text,
		Emotion: emotion.Default.String(),
	}
	if w.Emotion != nil {
		if bytes.Equal(w.Emotion, []byte("null")) {
			return nil, ErrNullEmotion
		}
		if err := json.Unmarshal(w.Emotion, &req.Emotion); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
	}
	return req, nil
}

// SynthesisResult is the encoded audio for one request.
type SynthesisResult struct {
	// Audio is the complete encoded file.
	Audio []byte

	// ContentType is the MIME type of Audio ("audio/wav").
	ContentType string

	// SampleRate is the rate Audio was encoded at.
	SampleRate int

	// Emotion is the tone that was applied.
	Emotion emotion.Emotion

	// Prompt is the exact text sent to the speech model.
	Prompt string
}
