// Package speech provides the read-aloud and voice-input capabilities of the
// chat screen. Synthesizer and Recognizer are injected into the chat
// controller; the command-backed implementations drive local text-to-speech
// and speech-to-text programs, and the Nop ones report that speech is
// unavailable.
package speech

//go:generate mockgen -source=speech.go -destination=mocks/mock_speech.go -package=mocks

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no speech engine is configured.
var ErrUnavailable = errors.New("speech: not available")

// DefaultRate is the speaking rate used for read-aloud.
const DefaultRate = 0.9

// Utterance is one piece of text to speak.
type Utterance struct {
	Text   string
	Locale string
	// Rate is relative to the engine's normal speed (1.0).
	Rate float64
}

// Synthesizer speaks one utterance at a time.
type Synthesizer interface {
	// Speak starts speaking u and returns immediately. onEnd runs once when
	// the utterance finishes, fails or is cancelled.
	Speak(u Utterance, onEnd func(error)) error
	// Cancel stops the current utterance, if any.
	Cancel()
}

// Recognizer transcribes a single spoken phrase.
type Recognizer interface {
	Recognize(ctx context.Context, locale string) (string, error)
}

// Nop is a Synthesizer and Recognizer that always reports ErrUnavailable.
type Nop struct{}

func (Nop) Speak(Utterance, func(error)) error { return ErrUnavailable }

func (Nop) Cancel() {}

func (Nop) Recognize(context.Context, string) (string, error) { return "", ErrUnavailable }
