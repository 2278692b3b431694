package ai

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/specloop/pkg/domain/ai"
)

// MockProvider returns scripted responses in order, then repeats the
// last one. With no script it echoes a fixed acknowledgement. Used by
// the "mock" provider choice for dry runs and throughout the tests.
type MockProvider struct {
	Model     string
	Responses []string
	Err       error

	mu    sync.Mutex
	calls int
	seen  []ai.CompletionRequest
}

func (m *MockProvider) ID() string {
	if m.Model == "" {
		return "mock"
	}
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = append(m.seen, req)
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}

	text := "mock completion"
	if n := len(m.Responses); n > 0 {
		idx := m.calls - 1
		if idx >= n {
			idx = n - 1
		}
		text = m.Responses[idx]
	}

	return &ai.CompletionResponse{
		Text:  text,
		Model: m.ID(),
		Usage: ai.TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(text) / 4},
	}, nil
}

// Calls reports how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of the requests seen so far.
func (m *MockProvider) Requests() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.CompletionRequest, len(m.seen))
	copy(out, m.seen)
	return out
}
