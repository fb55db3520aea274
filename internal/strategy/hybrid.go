package strategy

import (
	"context"

	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/ner"
	"github.com/ppiankov/assignparse/internal/normalize"
	"github.com/ppiankov/assignparse/internal/postprocess"
	"github.com/ppiankov/assignparse/internal/validate"
	"go.uber.org/zap"
)

// HybridStrategy runs the pattern extractor, then augments the record with
// recognized entities, fuzzy backfill and correction rules.
type HybridStrategy struct {
	extractor   *extract.Extractor
	recognizers []ner.Recognizer
	filler      *postprocess.FuzzyFiller
	rules       []model.Rule
	validator   *validate.Validator
	fallback    string
	logger      *zap.Logger
}

// NewHybrid creates the hybrid strategy. It falls back to rule_based.
func NewHybrid(extractor *extract.Extractor, recognizers []ner.Recognizer, filler *postprocess.FuzzyFiller,
	rules []model.Rule, validator *validate.Validator, logger *zap.Logger) *HybridStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridStrategy{
		extractor:   extractor,
		recognizers: recognizers,
		filler:      filler,
		rules:       rules,
		validator:   validator,
		fallback:    RuleBased,
		logger:      logger,
	}
}

func (s *HybridStrategy) ID() string       { return Hybrid }
func (s *HybridStrategy) Fallback() string { return s.fallback }

// Parse implements Strategy.
func (s *HybridStrategy) Parse(ctx context.Context, text string) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, diag := s.extractor.Extract(text)
	logDiagnostics(s.logger, Hybrid, diag)

	full := normalize.Text(text)
	rec.MergeEntities(ner.Extract(ctx, full, s.logger, s.recognizers...))

	if s.filler != nil {
		for _, m := range s.filler.Fill(full, rec) {
			s.logger.Debug("fuzzy matched field",
				zap.String("field", m.Field),
				zap.String("value", m.Value),
				zap.Float64("score", m.Score))
		}
	}
	if n := postprocess.ApplyRules(rec, s.rules); n > 0 {
		s.logger.Debug("post-processing rules applied", zap.Int("count", n))
	}

	if err := s.validator.Check("strategy."+Hybrid, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
