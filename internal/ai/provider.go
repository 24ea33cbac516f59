package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingCredential is returned by providers that have no API key configured.
var ErrMissingCredential = errors.New("llm api key is not set")

// Request is a single prompt sent to a language model.
type Request struct {
	System string // optional system instruction
	Prompt string
	JSON   bool // ask the provider for a JSON object response
}

// Provider sends a prompt to an LLM and returns the raw text response.
// Implementations always use the most deterministic sampling (temperature 0).
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const connectionCheckPrompt = "Test LLM connection."

// CheckConnection performs a trivial round-trip to verify the credential and model are usable.
func CheckConnection(ctx context.Context, p Provider) error {
	if _, err := p.Complete(ctx, Request{Prompt: connectionCheckPrompt}); err != nil {
		return fmt.Errorf("llm connection check: %w", err)
	}
	return nil
}
