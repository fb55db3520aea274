package strategy

import (
	"context"

	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/validate"
	"go.uber.org/zap"
)

// RuleBasedStrategy extracts with patterns only
type RuleBasedStrategy struct {
	extractor *extract.Extractor
	validator *validate.Validator
	fallback  string
	logger    *zap.Logger
}

// NewRuleBased creates the pattern-only strategy.
func NewRuleBased(extractor *extract.Extractor, validator *validate.Validator, logger *zap.Logger) *RuleBasedStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleBasedStrategy{extractor: extractor, validator: validator, logger: logger}
}

func (s *RuleBasedStrategy) ID() string       { return RuleBased }
func (s *RuleBasedStrategy) Fallback() string { return s.fallback }

// Parse implements Strategy.
func (s *RuleBasedStrategy) Parse(ctx context.Context, text string) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, diag := s.extractor.Extract(text)
	logDiagnostics(s.logger, RuleBased, diag)

	if err := s.validator.Check("strategy."+RuleBased, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func logDiagnostics(logger *zap.Logger, id string, diag *extract.Diagnostics) {
	if diag == nil {
		return
	}
	for _, section := range diag.MissingSections {
		logger.Debug("section not found", zap.String("strategy", id), zap.String("section", section))
	}
	for _, field := range diag.Fallback {
		logger.Debug("field resolved", zap.String("strategy", id), zap.String("field", field), zap.String("source", "fallback"))
	}
}
