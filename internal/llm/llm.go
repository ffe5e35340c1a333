package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when a provider answers successfully but
// the response has no choices[0].message.content.
var ErrEmptyCompletion = errors.New("no completion content returned")

// Request is a single-turn chat completion: one user message, a model and
// a response token budget.
type Request struct {
	Model     string
	Prompt    string
	MaxTokens int64
}

// Client is a minimal chat-completion interface so providers stay pluggable.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
