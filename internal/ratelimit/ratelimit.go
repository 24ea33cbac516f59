package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/coldreach/internal/embed"
)

// KeyedLimiter enforces a minimum delay between calls sharing the same key
// (for example, the same embedding provider).
type KeyedLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewKeyedLimiter creates a limiter that enforces minDelay between
// consecutive calls for the same key. A zero minDelay never waits.
func NewKeyedLimiter(minDelay time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last call for key.
// Returns an error if the context is cancelled while waiting.
func (r *KeyedLimiter) Wait(ctx context.Context, key string) error {
	r.mu.Lock()
	last, ok := r.lastCall[key]
	now := time.Now()

	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - now.Sub(last)
	// Reserve the slot so concurrent callers queue behind this one.
	r.lastCall[key] = now.Add(remaining)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(remaining):
	}
	return nil
}

// Embedder is a decorator that waits for the limiter before every Embed call.
type Embedder struct {
	inner   embed.Embedder
	limiter *KeyedLimiter
	key     string
}

// NewEmbedder wraps an Embedder with keyed rate limiting. Embedders calling
// the same provider should share one limiter and key.
func NewEmbedder(inner embed.Embedder, limiter *KeyedLimiter, key string) *Embedder {
	return &Embedder{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// Embed waits for the limiter, then delegates to the wrapped embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx, e.key); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, texts)
}
