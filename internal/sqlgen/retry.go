package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultMaxRetries = 2
	retryBackoff      = 500 * time.Millisecond
)

// GenerationError wraps the last failure after all attempts are exhausted.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("SQL generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerateWithRetry runs Generate up to maxRetries times with a fixed
// backoff between attempts. An ambiguous question is terminal: retrying the
// same question cannot make it less ambiguous, so the sentinel short-circuits
// the loop. Context cancellation also stops the loop immediately.
func (g *Generator) GenerateWithRetry(ctx context.Context, question string, tenantIDs []string, maxRetries int) (*Result, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		res, err := g.Generate(ctx, question, tenantIDs)
		if err == nil {
			return res, nil
		}

		var ambiguous *AmbiguousQuestionError
		if errors.As(err, &ambiguous) {
			return nil, ambiguous
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if attempt < maxRetries {
			log.Warn().
				Int("attempt", attempt).
				Err(err).
				Msg("SQL generation attempt failed, retrying")

			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, &GenerationError{Attempts: maxRetries, Err: lastErr}
}
