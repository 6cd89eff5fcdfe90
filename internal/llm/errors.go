package llm

import (
	"errors"
	"fmt"
)

// ErrStreamingUnsupported is returned when a streaming call is made against
// a provider that only implements Chat.
var ErrStreamingUnsupported = errors.New("provider does not support streaming")

// ProviderError wraps a single failed upstream model call.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model %s call failed: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AggregateProviderError is raised when the primary call and its single
// fallback hop both fail. It names both models.
type AggregateProviderError struct {
	Primary     string
	Fallback    string
	PrimaryErr  error
	FallbackErr error
}

func (e *AggregateProviderError) Error() string {
	return fmt.Sprintf("both primary (%s) and fallback (%s) models failed: primary: %v; fallback: %v",
		e.Primary, e.Fallback, e.PrimaryErr, e.FallbackErr)
}

func (e *AggregateProviderError) Unwrap() error { return e.FallbackErr }
