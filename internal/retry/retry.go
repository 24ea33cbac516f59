package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/coldreach/internal/embed"
	"github.com/amishk599/coldreach/internal/model"
)

// Embedder is a decorator that retries transient embedding failures with
// exponential backoff and jitter. It is used for the bootstrap ingest only;
// request-time pipeline stages are never retried.
type Embedder struct {
	inner      embed.Embedder
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewEmbedder wraps an Embedder with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewEmbedder(inner embed.Embedder, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Embedder {
	return &Embedder{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Embed attempts to embed texts, retrying on transient errors.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.inner.Embed(ctx, texts)
	if err == nil {
		return vecs, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		delay := e.backoffDelay(attempt, lastErr)

		e.logger.Warn("retrying embedding after transient error",
			"attempt", attempt,
			"max_retries", e.maxRetries,
			"delay", delay,
			"batch", len(texts),
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		vecs, err = e.inner.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (e *Embedder) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := e.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}
