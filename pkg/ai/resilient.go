package ai

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/felixgeelhaar/specloop/pkg/domain/ai"
)

// completionDeadline bounds a single completion including retries.
// Validation prompts carry three diagrams plus the slice text, so this
// stays generous.
const completionDeadline = 300 * time.Second

// ResilientProvider wraps a Provider with bounded retries and an
// overall timeout. The convergence loops themselves never retry; this
// decorator is the one place transient transport errors get absorbed.
type ResilientProvider struct {
	inner ai.Provider
}

func NewResilientProvider(inner ai.Provider) *ResilientProvider {
	return &ResilientProvider{inner: inner}
}

func (p *ResilientProvider) ID() string {
	return p.inner.ID()
}

func (p *ResilientProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	r := retry.New[*ai.CompletionResponse](retry.Config{
		MaxAttempts:   2,
		InitialDelay:  time.Second,
		BackoffPolicy: retry.BackoffExponential,
	})

	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: completionDeadline,
	})

	return t.Execute(ctx, completionDeadline, func(ctx context.Context) (*ai.CompletionResponse, error) {
		return r.Do(ctx, func(ctx context.Context) (*ai.CompletionResponse, error) {
			return p.inner.Complete(ctx, req)
		})
	})
}
