package postprocess

import (
	"github.com/ppiankov/assignparse/internal/model"
	"go.uber.org/zap"
)

// DefaultThreshold is the minimum score a match must exceed.
const DefaultThreshold = 80

// Match is one accepted fuzzy fill
type Match struct {
	Field string
	Value string
	Score float64
}

// FuzzyFiller backfills unresolved fields from a corpus of known values
type FuzzyFiller struct {
	fields      []string
	knownValues map[string][]string
	threshold   float64
	similarity  SimilarityFunc
	logger      *zap.Logger
}

// NewFuzzyFiller builds a filler from configuration. A nil similarity uses
// PartialRatio; a non-positive threshold uses DefaultThreshold.
func NewFuzzyFiller(cfg *model.Config, similarity SimilarityFunc, logger *zap.Logger) *FuzzyFiller {
	if similarity == nil {
		similarity = PartialRatio
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &FuzzyFiller{
		fields:      cfg.FuzzyMatchFields,
		knownValues: cfg.KnownValues,
		threshold:   threshold,
		similarity:  similarity,
		logger:      logger,
	}
}

// Fill sets every configured field still holding N/A to its best known
// value, when that value scores above the threshold against text. Fields
// that already hold a value are never touched. The first known value wins
// ties.
func (f *FuzzyFiller) Fill(text string, rec *model.Record) []Match {
	var matches []Match
	for _, name := range f.fields {
		field, ok := model.FieldByName(name)
		if !ok {
			f.logger.Debug("fuzzy field not in record", zap.String("field", name))
			continue
		}
		if field.Get(rec) != model.NA {
			continue
		}
		candidates := f.known(field.Name)
		if len(candidates) == 0 {
			continue
		}

		best, bestScore := "", -1.0
		for _, candidate := range candidates {
			score, err := f.similarity(candidate, text)
			if err != nil {
				f.logger.Warn("similarity scoring failed",
					zap.String("kind", string(model.KindCollaborator)),
					zap.String("field", field.Name),
					zap.Error(err))
				continue
			}
			if score > bestScore {
				best, bestScore = candidate, score
			}
		}

		if bestScore > f.threshold {
			field.Set(rec, best)
			matches = append(matches, Match{Field: field.Name, Value: best, Score: bestScore})
			f.logger.Debug("fuzzy fill",
				zap.String("field", field.Name),
				zap.String("value", best),
				zap.Float64("score", bestScore))
		}
	}
	return matches
}

// known looks up the corpus for a field. Keys coming from viper are
// lower-cased, so the lookup falls back to a case-insensitive match.
func (f *FuzzyFiller) known(name string) []string {
	if v, ok := f.knownValues[name]; ok {
		return v
	}
	for k, v := range f.knownValues {
		if field, ok := model.FieldByName(k); ok && field.Name == name {
			return v
		}
	}
	return nil
}
