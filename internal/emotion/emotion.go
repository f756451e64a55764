// Package emotion holds the fixed table of caster tones and the prompt
// prefix each one contributes to a synthesis prompt.
package emotion

// Emotion is a caster tone. The zero value is Unknown.
type Emotion int

const (
	// Unknown is any label outside the table. It contributes no prefix.
	Unknown Emotion = iota
	Hype
	Tense
	Calm
)

// Default is used when a request does not name an emotion.
const Default = Hype

var labels = [...]string{
	Unknown: "",
	Hype:    "hype",
	Tense:   "tense",
	Calm:    "calm",
}

var prefixes = [...]string{
	Unknown: "",
	Hype:    "Excited esports commentator voice. High energy. Crowd roaring.",
	Tense:   "Low, tense esports caster voice. Controlled breathing.",
	Calm:    "Calm analyst voice. Confident and composed.",
}

// Parse maps a label to its Emotion. Matching is exact; anything else,
// including the empty string, yields Unknown.
func Parse(label string) Emotion {
	switch label {
	case "hype":
		return Hype
	case "tense":
		return Tense
	case "calm":
		return Calm
	default:
		return Unknown
	}
}

// All returns the recognized emotions in table order.
func All() []Emotion {
	return []Emotion{Hype, Tense, Calm}
}

// String returns the label, or "unknown" for Unknown.
func (e Emotion) String() string {
	if !e.Known() {
		return "unknown"
	}
	return labels[e]
}

// Known reports whether e is one of the table entries.
func (e Emotion) Known() bool {
	return e > Unknown && int(e) < len(labels)
}

// Prefix returns the natural-language style prefix for e.
func (e Emotion) Prefix() string {
	if !e.Known() {
		return prefixes[Unknown]
	}
	return prefixes[e]
}

// Prompt composes the text sent to the speech model: the prefix, one space,
// then the text exactly as received. An Unknown emotion still inserts the
// space, so the prompt starts with " ".
func (e Emotion) Prompt(text string) string {
	return e.Prefix() + " " + text
}
