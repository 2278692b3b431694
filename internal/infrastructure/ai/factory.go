// Package ai resolves completion providers from flags, environment
// variables, and the workspace config file.
package ai

import (
	"fmt"
	"os"

	providers "github.com/felixgeelhaar/specloop/pkg/ai"
	"github.com/felixgeelhaar/specloop/pkg/domain/ai"
)

// NewProvider constructs a provider by name. The empty name selects
// Gemini, the pipeline's default backend.
func NewProvider(providerName, modelName string) (ai.Provider, error) {
	switch providerName {
	case "gemini", "":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return providers.NewGeminiProvider(modelName, apiKey), nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return providers.NewOpenAIProvider(modelName, apiKey), nil
	case "ollama":
		return providers.NewOllamaProvider(modelName), nil
	case "mock":
		return &providers.MockProvider{Model: modelName}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// ResolveProvider applies the precedence chain flag > environment >
// config file, wraps the result with retry and timeout handling, and
// returns it.
func ResolveProvider(flagProvider, flagModel, cfgProvider, cfgModel string) (ai.Provider, error) {
	providerName := flagProvider
	modelName := flagModel

	if providerName == "" {
		providerName = os.Getenv("SPECLOOP_AI_PROVIDER")
	}
	if modelName == "" {
		modelName = os.Getenv("SPECLOOP_AI_MODEL")
	}
	if providerName == "" {
		providerName = cfgProvider
	}
	if modelName == "" {
		modelName = cfgModel
	}

	inner, err := NewProvider(providerName, modelName)
	if err != nil {
		return nil, err
	}
	return providers.NewResilientProvider(inner), nil
}
