// Package provider defines the unified interface over LLM backends.
// Each adapter (openai.go, anthropic.go) converts the unified request
// into its API's native format and returns a single blocking completion.
package provider

import "context"

// CompletionRequest is the unified request sent to a provider.
// One system instruction plus one user turn; no tools, no streaming.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserContent  string
	MaxTokens    int
}

// Provider is the unified interface over LLM backends.
type Provider interface {
	// Complete performs one blocking chat completion and returns the
	// assistant's text. A single call produces a single completion.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// Name returns the provider identifier, e.g. "openai", "anthropic".
	Name() string

	// DefaultModel returns the model used when the request leaves Model empty.
	DefaultModel() string
}
