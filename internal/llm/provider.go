// Package llm abstracts the text-generation providers used for query
// generation behind a single Provider interface.
package llm

import "context"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat-completion call.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Temperature  float32
	MaxTokens    int
}

// CompletionResponse holds the provider's reply plus usage accounting.
type CompletionResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
	DurationMS   int64
}

// Provider is the interface implemented by text-generation backends.
type Provider interface {
	Name() string
	DefaultModel() string
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}
