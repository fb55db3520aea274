package strategy

import (
	"fmt"

	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/llm"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/ner"
	"github.com/ppiankov/assignparse/internal/postprocess"
	"github.com/ppiankov/assignparse/internal/validate"
	"go.uber.org/zap"
)

// Deps are the collaborators injected into the built-in strategies
type Deps struct {
	Logger *zap.Logger

	// Recognizers feed the hybrid strategy. Nil uses the rule recognizer
	// seeded with the known insurance companies.
	Recognizers []ner.Recognizer

	// Similarity scores fuzzy candidates. Nil uses partial ratio.
	Similarity postprocess.SimilarityFunc

	// Limiter throttles completion calls; optional.
	Limiter RateLimiter

	// Providers overrides the completion provider per strategy id.
	Providers map[string]llm.Provider

	// Retry is the backoff schedule of completion calls; zero uses
	// DefaultRetryConfig. Each strategy's maxRetries overrides MaxTries.
	Retry RetryConfig
}

// Build constructs every built-in strategy from configuration and
// registers them in a fixed order. Completion-backed strategies whose
// provider is not configured are left unregistered; selecting one is a
// configuration error that names the reason.
func Build(cfg *model.Config, deps Deps) (*Registry, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	extractor, err := extract.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	validator, err := validate.NewValidator()
	if err != nil {
		return nil, model.ConfigError("strategy.build", "compile record schema", err)
	}
	if err := postprocess.ValidateRules(cfg.PostProcessingRules); err != nil {
		return nil, err
	}

	recognizers := deps.Recognizers
	if recognizers == nil {
		recognizers = []ner.Recognizer{ner.NewRules(knownInsurers(cfg))}
	}

	strategies := []Strategy{
		NewRuleBased(extractor, validator, logger),
		NewHybrid(extractor, recognizers,
			postprocess.NewFuzzyFiller(cfg, deps.Similarity, logger),
			cfg.PostProcessingRules, validator, logger),
	}
	unavailable := map[string]string{}

	baseRetry := deps.Retry
	if baseRetry.MaxTries == 0 {
		baseRetry = DefaultRetryConfig()
	}

	for _, entry := range []struct {
		id  string
		cfg model.LLMConfig
	}{
		{LocalLLM, cfg.LocalLLM},
		{LLM, cfg.LLM},
	} {
		provider, err := providerFor(entry.id, entry.cfg, deps.Providers)
		if err != nil {
			unavailable[entry.id] = err.Error()
			logger.Debug("strategy not registered", zap.String("strategy", entry.id), zap.Error(err))
			continue
		}
		opts := []LLMOption{WithRetry(retryFor(baseRetry, entry.cfg))}
		if deps.Limiter != nil {
			opts = append(opts, WithLimiter(deps.Limiter))
		}
		strategies = append(strategies, NewLLM(entry.id, provider, validator, extractor.Normalizer(), logger, opts...))
	}

	registry, err := NewRegistry(strategies...)
	if err != nil {
		return nil, err
	}
	registry.unavailable = unavailable
	return registry, nil
}

func providerFor(id string, c model.LLMConfig, overrides map[string]llm.Provider) (llm.Provider, error) {
	if p, ok := overrides[id]; ok && p != nil {
		return p, nil
	}
	provider, err := llm.NewProvider(llm.WithEnv(llm.ConfigFromModel(c)))
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("no provider configured")
	}
	return provider, nil
}

// retryFor applies a strategy's own maxRetries to the shared schedule.
func retryFor(base RetryConfig, c model.LLMConfig) RetryConfig {
	if c.MaxRetries > 0 {
		base.MaxTries = uint(c.MaxRetries)
	}
	return base
}

func knownInsurers(cfg *model.Config) []string {
	for name, values := range cfg.KnownValues {
		if f, ok := model.FieldByName(name); ok && f.Name == "Insurance Company" {
			return values
		}
	}
	return nil
}
