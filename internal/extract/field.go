// Package extract applies per-field pattern rules to segmented email text
// and assembles the resulting Record.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/normalize"
	"go.uber.org/zap"
)

// Source records which pattern produced a value
type Source int

const (
	SourceNone     Source = iota // no match, value is N/A
	SourcePrimary                // primary pattern matched
	SourceFallback               // fallback pattern matched
)

func (s Source) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Value is one extracted field value with its diagnostics
type Value struct {
	Value      string
	Source     Source
	Normalized bool // false when the normalizer left the raw value as-is
}

// Rule is a compiled field rule
type Rule struct {
	Section  string
	Name     string
	Kind     model.FieldKind
	Primary  *regexp.Regexp
	Fallback *regexp.Regexp // optional
}

// Match applies the primary pattern, then the fallback, to text. The
// returned value is the trimmed first capture group.
func (r Rule) Match(text string) (string, Source) {
	if v, ok := firstGroup(r.Primary, text); ok {
		return v, SourcePrimary
	}
	if r.Fallback != nil {
		if v, ok := firstGroup(r.Fallback, text); ok {
			return v, SourceFallback
		}
	}
	return "", SourceNone
}

func firstGroup(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) < 2 {
		return "", true
	}
	return strings.TrimSpace(m[1]), true
}

// Rules is the compiled rule table keyed by canonical section header
type Rules struct {
	bySection   map[string][]Rule
	attachments *Rule
}

// Section returns the rules of a section in schema order.
func (r *Rules) Section(section string) []Rule {
	return r.bySection[model.CanonicalSection(section)]
}

// Attachments returns the inline attachment rule, if configured.
func (r *Rules) Attachments() *Rule {
	return r.attachments
}

// CompileRules compiles pattern configuration. Patterns are compiled
// case-insensitive and dot-all. Unknown sections or fields, uncompilable
// patterns, and patterns without a capture group are configuration errors.
func CompileRules(patterns map[string]map[string]model.PatternConfig) (*Rules, error) {
	rules := &Rules{bySection: make(map[string][]Rule)}

	// Sorted iteration keeps error reporting deterministic.
	sections := make([]string, 0, len(patterns))
	for s := range patterns {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	for _, rawSection := range sections {
		section := model.CanonicalSection(rawSection)
		for name, pc := range patterns[rawSection] {
			rule, err := compileRule(section, name, pc)
			if err != nil {
				return nil, err
			}
			if rule.Name == model.AttachmentsField {
				r := rule
				rules.attachments = &r
				continue
			}
			rules.bySection[section] = append(rules.bySection[section], rule)
		}
	}

	for section, list := range rules.bySection {
		sort.SliceStable(list, func(i, j int) bool {
			return fieldIndex(list[i].Name) < fieldIndex(list[j].Name)
		})
		rules.bySection[section] = list
	}
	return rules, nil
}

func compileRule(section, name string, pc model.PatternConfig) (Rule, error) {
	op := "extract.compile"
	rule := Rule{Section: section}

	if section == model.SectionAttachments && strings.EqualFold(strings.TrimSpace(name), model.AttachmentsField) {
		rule.Name = model.AttachmentsField
	} else {
		field, ok := model.FieldByName(name)
		if !ok {
			return Rule{}, model.ConfigError(op, fmt.Sprintf("unknown field %q in section %q", name, section), nil)
		}
		if !strings.EqualFold(field.Section, section) {
			return Rule{}, model.ConfigError(op, fmt.Sprintf("field %q does not belong to section %q", field.Name, section), nil)
		}
		rule.Name = field.Name
		rule.Kind = field.Kind
	}

	if strings.TrimSpace(pc.Primary) == "" {
		return Rule{}, model.ConfigError(op, fmt.Sprintf("field %q has no primary pattern", rule.Name), nil)
	}
	var err error
	if rule.Primary, err = compilePattern(rule.Name, pc.Primary); err != nil {
		return Rule{}, err
	}
	if strings.TrimSpace(pc.Fallback) != "" {
		if rule.Fallback, err = compilePattern(rule.Name, pc.Fallback); err != nil {
			return Rule{}, err
		}
	}
	return rule, nil
}

func compilePattern(field, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?is)" + pattern)
	if err != nil {
		return nil, model.ConfigError("extract.compile", fmt.Sprintf("pattern for %q", field), err)
	}
	if re.NumSubexp() < 1 {
		return nil, model.ConfigError("extract.compile", fmt.Sprintf("pattern for %q has no capture group", field), nil)
	}
	return re, nil
}

func fieldIndex(name string) int {
	for i, f := range model.Fields {
		if f.Name == name {
			return i
		}
	}
	return len(model.Fields)
}

// FieldExtractor evaluates the rules of one section
type FieldExtractor struct {
	rules      *Rules
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// NewFieldExtractor creates a field extractor. A nil logger disables logging.
func NewFieldExtractor(rules *Rules, normalizer *normalize.Normalizer, logger *zap.Logger) *FieldExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldExtractor{rules: rules, normalizer: normalizer, logger: logger}
}

// ExtractSection evaluates every rule of section against the whole text,
// independently of the others. A failing field degrades to N/A alone.
func (e *FieldExtractor) ExtractSection(section, text string) map[string]Value {
	rules := e.rules.Section(section)
	out := make(map[string]Value, len(rules))
	for _, rule := range rules {
		out[rule.Name] = e.extractField(rule, text)
	}
	return out
}

func (e *FieldExtractor) extractField(rule Rule, text string) (v Value) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("field extraction failed",
				zap.String("kind", string(model.KindExtraction)),
				zap.String("section", rule.Section),
				zap.String("field", rule.Name),
				zap.Any("error", r))
			v = Value{Value: model.NA, Source: SourceNone}
		}
	}()

	raw, source := rule.Match(text)
	if source == SourceNone || raw == "" {
		return Value{Value: model.NA, Source: source}
	}
	if source == SourceFallback {
		e.logger.Debug("field resolved by fallback pattern",
			zap.String("section", rule.Section),
			zap.String("field", rule.Name))
	}

	value, ok := e.normalizer.Apply(rule.Kind, raw)
	if !ok {
		e.logger.Debug("value left unnormalized",
			zap.String("field", rule.Name),
			zap.String("value", raw))
	}
	if value == "" {
		value = model.NA
	}
	return Value{Value: value, Source: source, Normalized: ok}
}
