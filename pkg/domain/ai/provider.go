// Package ai defines the text-completion boundary. Everything above this
// interface treats the model as a black box: a prompt goes in, free text
// comes out, and all structure is recovered afterwards by pkg/domain/verdict.
package ai

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the backing service answers
// successfully but with no text. Callers treat it like any other
// completion failure.
var ErrEmptyCompletion = errors.New("completion returned no text")

// CompletionRequest represents a prompt to the model.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
}

// CompletionResponse represents the model's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks costs.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for all completion backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
