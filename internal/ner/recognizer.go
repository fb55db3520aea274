package ner

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
	"go.uber.org/zap"
)

// Recognizer extracts entities from text as label -> values.
type Recognizer interface {
	Recognize(ctx context.Context, text string) (map[string][]string, error)
}

// Func adapts a plain function to the Recognizer interface.
type Func func(ctx context.Context, text string) (map[string][]string, error)

// Recognize calls f.
func (f Func) Recognize(ctx context.Context, text string) (map[string][]string, error) {
	return f(ctx, text)
}

// maxInputBytes bounds the text handed to the rule recognizer.
const maxInputBytes = 1 << 20

type pattern struct {
	typ EntityType
	re  *regexp.Regexp
	// group selects the submatch holding the entity; 0 is the whole match.
	group int
}

var basePatterns = []pattern{
	{Email, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), 0},
	{URL, regexp.MustCompile(`https?://[^\s<>"')\]]*[^\s<>"')\].,;:!?]`), 0},
	{Phone, regexp.MustCompile(`(?:\+?1[ .\-]?)?(?:\(\d{3}\)|\d{3})[ .\-]?\d{3}[ .\-]?\d{4}\b`), 0},
	{Date, regexp.MustCompile(`\b(?:\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}-\d{2}-\d{2})\b`), 0},
	{Date, regexp.MustCompile(`(?i)\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.? \d{1,2},? \d{4}\b`), 0},
	{Money, regexp.MustCompile(`\$[ ]?\d{1,3}(?:,\d{3})*(?:\.\d{2})?\b|\$[ ]?\d+(?:\.\d{2})?\b`), 0},
	{ClaimNumber, regexp.MustCompile(`(?i)\b(?:claim|policy)[ \t]*(?:number|no\.?|#)[ \t]*:?[ \t]*([A-Z0-9][A-Z0-9\-]*\d[A-Z0-9\-]*)`), 1},
}

// Rules is the built-in rule-based recognizer. Organizations are matched
// from a fixed list of carrier names.
type Rules struct {
	patterns []pattern
}

// NewRules builds a rule recognizer. organizations are matched as whole
// words, case-insensitively.
func NewRules(organizations []string) *Rules {
	r := &Rules{patterns: append([]pattern{}, basePatterns...)}
	for _, org := range organizations {
		org = strings.TrimSpace(org)
		if org == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(org) + `\b`)
		r.patterns = append(r.patterns, pattern{typ: Organization, re: re})
	}
	return r
}

// Recognize implements Recognizer.
func (r *Rules) Recognize(ctx context.Context, text string) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Group(r.Entities(text)), nil
}

// Entities returns all entities in s sorted by offset. Overlapping matches
// resolve to the longest span; equal spans keep the earlier pattern.
func (r *Rules) Entities(s string) []Entity {
	if s == "" || len(s) > maxInputBytes {
		return nil
	}

	type candidate struct {
		Entity
		order int
	}
	var all []candidate
	for i, p := range r.patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(s, -1) {
			start, end := m[2*p.group], m[2*p.group+1]
			if start < 0 || start == end {
				continue
			}
			all = append(all, candidate{Entity{Text: s[start:end], Start: start, End: end, Type: p.typ}, i})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		li, lj := all[i].End-all[i].Start, all[j].End-all[j].Start
		if li != lj {
			return li > lj
		}
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].order < all[j].order
	})

	var kept []Entity
	for _, c := range all {
		overlaps := false
		for _, k := range kept {
			if c.Start < k.End && k.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c.Entity)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// Extract runs every recognizer over text and merges their output. A
// recognizer that errors or panics contributes nothing.
func Extract(ctx context.Context, text string, logger *zap.Logger, recognizers ...Recognizer) map[string][]string {
	if logger == nil {
		logger = zap.NewNop()
	}
	rec := &model.Record{}
	for i, r := range recognizers {
		if r == nil {
			continue
		}
		entities, err := safeRecognize(ctx, r, text)
		if err != nil {
			logger.Warn("entity recognition failed",
				zap.String("kind", string(model.KindCollaborator)),
				zap.Int("recognizer", i),
				zap.Error(err))
			continue
		}
		rec.MergeEntities(entities)
	}
	if rec.Entities == nil {
		return map[string][]string{}
	}
	return rec.Entities
}

func safeRecognize(ctx context.Context, r Recognizer, text string) (out map[string][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("recognizer panic: %v", p)
		}
	}()
	return r.Recognize(ctx, text)
}
