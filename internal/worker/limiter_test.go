package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "http://localhost:1234/v1/completions"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst 1 is consumed
	if limiter.Allow("openai") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Other keys have their own budget
	if !limiter.Allow("ollama") {
		t.Errorf("expected allow for other key")
	}
}

func TestLimiter_URLKeysShareHost(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if !limiter.Allow("http://localhost:1234/v1/completions") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("http://localhost:1234/v1/models") {
		t.Error("expected same host to share the budget")
	}
	if !limiter.Allow("http://localhost:11434/api/generate") {
		t.Error("expected a different port to have its own budget")
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	limiter.Allow("openai")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("expected error when the wait outlives the context")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("openai") {
			t.Fatalf("request %d throttled with rate disabled", i)
		}
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"http://example.com/foo", "example.com"},
		{"https://api.openai.com/v1", "api.openai.com"},
		{"openai", "openai"},
		{"::invalid", "::invalid"},
	}

	for _, tt := range tests {
		if got := bucket(tt.key); got != tt.expected {
			t.Errorf("bucket(%q): expected %q, got %q", tt.key, tt.expected, got)
		}
	}
}
