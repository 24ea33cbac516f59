package ai

import "context"

// UnconfiguredProvider stands in when no LLM API key is configured.
// Every call fails with ErrMissingCredential so each run reports a
// configuration failure instead of the process refusing to start.
type UnconfiguredProvider struct{}

// NewUnconfiguredProvider returns an UnconfiguredProvider.
func NewUnconfiguredProvider() *UnconfiguredProvider {
	return &UnconfiguredProvider{}
}

// Complete always returns ErrMissingCredential.
func (UnconfiguredProvider) Complete(_ context.Context, _ Request) (string, error) {
	return "", ErrMissingCredential
}
