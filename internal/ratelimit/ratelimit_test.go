package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_SameKey_EnforcesMinDelay(t *testing.T) {
	limiter := NewKeyedLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentKeys_NoCrossBlocking(t *testing.T) {
	limiter := NewKeyedLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Fatalf("ollama wait: %v", err)
	}

	// Immediately call for openai, should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Fatalf("openai wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 50*time.Millisecond {
		t.Errorf("expected openai wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewKeyedLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx, "hash"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no waiting, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewKeyedLimiter(5 * time.Second) // long delay
	ctx := context.Background()

	// First call to seed the last-call time.
	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	if err := limiter.Wait(ctx, "ollama"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingEmbedder struct {
	called bool
}

func (e *recordingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.called = true
	return make([][]float32, len(texts)), nil
}

func TestRateLimitedEmbedder_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewKeyedLimiter(100 * time.Millisecond)
	inner := &recordingEmbedder{}
	embedder := NewEmbedder(inner, limiter, "ollama")
	ctx := context.Background()

	// First call seeds the limiter, then delegates.
	if _, err := embedder.Embed(ctx, []string{"Go"}); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if !inner.called {
		t.Fatal("inner embedder was not called on first batch")
	}

	inner.called = false

	start := time.Now()
	if _, err := embedder.Embed(ctx, []string{"Rust"}); err != nil {
		t.Fatalf("second embed: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner embedder was not called on second batch")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second batch, got %v", elapsed)
	}
}

func TestRateLimitedEmbedder_CancelledSkipsInner(t *testing.T) {
	limiter := NewKeyedLimiter(5 * time.Second)
	inner := &recordingEmbedder{}
	embedder := NewEmbedder(inner, limiter, "ollama")

	if _, err := embedder.Embed(context.Background(), []string{"Go"}); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	inner.called = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := embedder.Embed(ctx, []string{"Rust"}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if inner.called {
		t.Error("inner embedder should not run after a cancelled wait")
	}
}
