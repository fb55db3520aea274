// Package strategy defines the interchangeable extraction strategies, the
// registry that resolves them by identifier, and the runner that drives a
// parse through at most one fallback hop.
package strategy

import (
	"context"

	"github.com/ppiankov/assignparse/internal/model"
)

// Strategy identifiers
const (
	RuleBased = "rule_based"
	Hybrid    = "hybrid"
	LocalLLM  = "local_llm"
	LLM       = "llm"
)

// Strategy is one complete extraction implementation. Implementations hold
// no per-call state and are safe for concurrent use.
type Strategy interface {
	// ID returns the stable identifier the strategy is registered under
	ID() string

	// Fallback names the strategy to hand off to on failure, or ""
	Fallback() string

	// Parse turns raw email text into a validated record
	Parse(ctx context.Context, text string) (*model.Record, error)
}

// RateLimiter throttles calls to a collaborator identified by key
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}
