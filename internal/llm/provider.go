// Package llm talks to the language models behind the neural summarization
// engine.
package llm

import "context"

// Provider is a chat-completion backend. Implementations must be safe for
// concurrent use; the neural engine summarizes chunks in parallel.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}
