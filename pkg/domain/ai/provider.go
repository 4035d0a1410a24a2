// Package ai defines the contract for the text-generation collaborator
// that compiles history plans and drafts review comments.
package ai

import (
	"context"
)

// CompletionRequest represents a prompt to the generator.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
}

// CompletionResponse represents the generator's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks consumption for operator visibility.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the interface every generation backend implements.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
