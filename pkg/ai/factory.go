package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/felixgeelhaar/weaver/pkg/domain/ai"
)

// NewProvider builds a generation backend by name. API keys come from
// the environment only.
func NewProvider(providerName string, modelName string) (ai.Provider, error) {
	switch providerName {
	case "ollama", "":
		return NewOllamaProvider(modelName), nil
	case "mock":
		return &MockProvider{Model: modelName}, nil
	case "openai":
		return NewOpenAIProvider(modelName, os.Getenv("OPENAI_API_KEY")), nil
	case "anthropic":
		return NewAnthropicProvider(modelName, os.Getenv("ANTHROPIC_API_KEY")), nil
	case "gemini":
		return NewGeminiProvider(modelName, os.Getenv("GEMINI_API_KEY")), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// GetDefaultProvider resolves provider and model, letting environment
// variables override the configured defaults.
func GetDefaultProvider(providerName, modelName string) (ai.Provider, error) {
	if env := os.Getenv("WEAVER_AI_PROVIDER"); env != "" {
		providerName = env
	}
	if env := os.Getenv("WEAVER_AI_MODEL"); env != "" {
		modelName = env
	}
	return NewProvider(providerName, modelName)
}

// MockProvider returns a fixed response. Used by tests and by the
// "mock" provider setting for offline smoke runs.
type MockProvider struct {
	Model    string
	Response string
	Err      error
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(_ context.Context, _ ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	text := m.Response
	if text == "" {
		text = "[]"
	}
	return &ai.CompletionResponse{Text: text, Model: m.Model}, nil
}
