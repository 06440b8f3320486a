// Package llm is the language-model boundary used by the generator.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion reports a response without any content.
var ErrEmptyCompletion = errors.New("empty completion")

// Request is one chat completion request.
type Request struct {
	System      string
	User        string
	Seed        *int
	Temperature float64
	// JSON asks the model for a JSON object response.
	JSON bool
}

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls fn.
func (fn ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return fn(ctx, req)
}
