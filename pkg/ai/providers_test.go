package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	infraAI "github.com/felixgeelhaar/specloop/pkg/ai"
	"github.com/felixgeelhaar/specloop/pkg/domain/ai"
)

func TestOpenAIProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "<errors: 0>"}},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 4},
		})
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProviderWithClient("gpt-4o", "test-key", server.URL, server.Client())
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Validate this SRS"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "<errors: 0>" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 4 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestOpenAIProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProviderWithClient("gpt-4o", "test-key", server.URL, server.Client())
	_, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "anything"})
	if !errors.Is(err, ai.ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestOpenAIProvider_Complete_MissingKey(t *testing.T) {
	p := infraAI.NewOpenAIProvider("gpt-4o", "")
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"}); err == nil {
		t.Error("expected missing API key error")
	}
}

func TestGeminiProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "@startuml\nclass A\n@enduml"}},
				}},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 20, "candidatesTokenCount": 9},
		})
	}))
	defer server.Close()

	p := infraAI.NewGeminiProviderWithClient("gemini-1.5-pro", "test-key", server.URL, server.Client())
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Generate a class diagram"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "@startuml\nclass A\n@enduml" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.InputTokens != 20 {
		t.Errorf("InputTokens = %d, want 20", resp.Usage.InputTokens)
	}
}

func TestGeminiProvider_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	p := infraAI.NewGeminiProviderWithClient("gemini-1.5-pro", "test-key", server.URL, server.Client())
	_, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "anything"})
	if !errors.Is(err, ai.ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] != false {
			t.Errorf("stream = %v, want false", req["stream"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"response": "  {\"overall_score\": 8}  ", "done": true})
	}))
	defer server.Close()

	p := infraAI.NewOllamaProviderWithURL("llama3", server.URL)
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Return JSON"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "{\"overall_score\": 8}" {
		t.Errorf("Text = %q, want trimmed JSON", resp.Text)
	}
}

func TestMockProvider_Script(t *testing.T) {
	m := &infraAI.MockProvider{Responses: []string{"first", "second"}}

	for i, want := range []string{"first", "second", "second"} {
		resp, err := m.Complete(context.Background(), ai.CompletionRequest{Prompt: "p"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Text != want {
			t.Errorf("call %d: Text = %q, want %q", i+1, resp.Text, want)
		}
	}
	if m.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", m.Calls())
	}
}

func TestResilientProvider_PassThrough(t *testing.T) {
	m := &infraAI.MockProvider{Responses: []string{"ok"}}
	p := infraAI.NewResilientProvider(m)

	if p.ID() != m.ID() {
		t.Errorf("ID = %s, want %s", p.ID(), m.ID())
	}
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "ok" {
		t.Errorf("Text = %q", resp.Text)
	}
}
