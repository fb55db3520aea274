package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ppiankov/assignparse/internal/llm"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/normalize"
	"github.com/ppiankov/assignparse/internal/validate"
	"go.uber.org/zap"
)

// RetryConfig bounds retries of completion calls.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns 3 tries starting at 1s and doubling.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxTries:        3,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     30 * time.Second,
	}
}

func (c RetryConfig) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.Multiplier = c.Multiplier
	b.MaxInterval = c.MaxInterval
	b.RandomizationFactor = 0
	return b
}

// LLMStrategy asks a completion model to fill the record template
type LLMStrategy struct {
	id         string
	provider   llm.Provider
	validator  *validate.Validator
	normalizer *normalize.Normalizer
	retry      RetryConfig
	newBackOff func() backoff.BackOff
	limiter    RateLimiter
	fallback   string
	logger     *zap.Logger
}

// LLMOption configures an LLMStrategy
type LLMOption func(*LLMStrategy)

// WithRetry overrides the retry bounds.
func WithRetry(c RetryConfig) LLMOption {
	return func(s *LLMStrategy) {
		if c.MaxTries > 0 {
			s.retry = c
		}
	}
}

// WithBackOff replaces the backoff schedule. Tests use a zero backoff.
func WithBackOff(fn func() backoff.BackOff) LLMOption {
	return func(s *LLMStrategy) { s.newBackOff = fn }
}

// WithLimiter throttles completion calls.
func WithLimiter(l RateLimiter) LLMOption {
	return func(s *LLMStrategy) { s.limiter = l }
}

// NewLLM creates a completion-backed strategy registered under id. It
// falls back to rule_based.
func NewLLM(id string, provider llm.Provider, validator *validate.Validator, normalizer *normalize.Normalizer,
	logger *zap.Logger, opts ...LLMOption) *LLMStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = normalize.Default()
	}
	s := &LLMStrategy{
		id:         id,
		provider:   provider,
		validator:  validator,
		normalizer: normalizer,
		retry:      DefaultRetryConfig(),
		fallback:   RuleBased,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newBackOff == nil {
		s.newBackOff = s.retry.backOff
	}
	return s
}

func (s *LLMStrategy) ID() string       { return s.id }
func (s *LLMStrategy) Fallback() string { return s.fallback }

// Parse implements Strategy. The response is cleaned, schema-checked and
// decoded; anything the model got wrong fails validation.
func (s *LLMStrategy) Parse(ctx context.Context, text string) (*model.Record, error) {
	op := "strategy." + s.id
	prompt := llm.BuildPrompt(normalize.Text(text))

	response, err := s.generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, model.CollaboratorError(op, err)
	}

	obj, err := llm.CleanResponse(response)
	if err != nil {
		s.logger.Debug("unusable model response", zap.String("strategy", s.id), zap.String("response", response))
		return nil, model.NewError(model.KindValidation, op, "no JSON object in model response", err)
	}

	if ok, msg := s.validator.ValidateJSON([]byte(obj)); !ok {
		return nil, model.ValidationError(op, msg)
	}

	rec, err := llm.DecodeRecord(obj)
	if err != nil {
		return nil, model.NewError(model.KindValidation, op, "decode model response", err)
	}
	rec.Normalize()
	rec.Attachments = s.filterAttachments(rec.Attachments)

	return rec, nil
}

func (s *LLMStrategy) filterAttachments(in []string) []string {
	out := []string{}
	for _, a := range in {
		if s.normalizer.IsValidAttachment(a) {
			out = append(out, a)
		}
	}
	return out
}

// generate calls the provider with bounded retries. Permanent errors stop
// the loop immediately.
func (s *LLMStrategy) generate(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	operation := func() (string, error) {
		attempt++
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
				return "", backoff.Permanent(err)
			}
		}
		text, err := s.provider.Generate(ctx, prompt)
		if err != nil && !llm.Retryable(err) {
			return "", backoff.Permanent(err)
		}
		return text, err
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("completion attempt failed, retrying",
			zap.String("strategy", s.id),
			zap.String("provider", s.provider.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.retry.MaxTries),
		backoff.WithNotify(notify),
	)
}
