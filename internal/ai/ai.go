// Package ai wraps the external services the planner depends on: text
// generation, image captioning, translation and text-to-speech.
//
// Every service is an interface so handlers can be exercised with fakes; the
// real implementations talk to hosted APIs and are never required for the
// rest of the application to start.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when a service has no credentials or endpoint.
	ErrNotConfigured = errors.New("ai service not configured")
	// ErrEmptyResponse means the service answered without usable content.
	ErrEmptyResponse = errors.New("empty response from ai service")

	ErrInvalidLanguage = errors.New("invalid language tag")
)

// Generator produces free-form text for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Captioner describes an image in a short sentence.
type Captioner interface {
	Caption(ctx context.Context, image []byte, contentType string) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Speaker synthesizes MP3 audio for text in the given language.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) ([]byte, error)
}

// Services bundles the clients handed to the HTTP layer. Any field may be nil
// when the matching service is not configured.
type Services struct {
	Generator  Generator
	Captioner  Captioner
	Translator Translator
	Speaker    Speaker
}
