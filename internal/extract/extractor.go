package extract

import (
	"fmt"

	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/normalize"
	"github.com/ppiankov/assignparse/internal/segment"
	"go.uber.org/zap"
)

// Diagnostics describes how a record was assembled. It never affects the
// record's shape.
type Diagnostics struct {
	MissingSections []string `json:"missing_sections,omitempty"`
	Fallback        []string `json:"fallback_fields,omitempty"`     // resolved by a fallback pattern
	Unnormalized    []string `json:"unnormalized_fields,omitempty"` // kept raw by the normalizer
	Warnings        []string `json:"warnings,omitempty"`
}

// sectionHandler fills the part of rec owned by one section.
type sectionHandler func(e *Extractor, rec *model.Record, diag *Diagnostics, section, body, full string)

// handlers is the explicit section -> extractor table.
var handlers = map[string]sectionHandler{
	model.SectionRequestingParty:       extractFields,
	model.SectionInsuredInformation:    extractFields,
	model.SectionAdjusterInformation:   extractFields,
	model.SectionAssignmentInformation: extractFields,
	model.SectionAssignmentType:        extractCheckboxes,
	model.SectionAdditionalDetails:     extractAdditionalDetails,
	model.SectionAttachments:           extractAttachments,
}

// Extractor runs segmentation and every section extractor over an email
type Extractor struct {
	segmenter  *segment.Segmenter
	rules      *Rules
	fields     *FieldExtractor
	checkbox   *CheckboxExtractor
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// New builds an extractor from configuration. Pattern errors are
// configuration errors.
func New(cfg *model.Config, logger *zap.Logger) (*Extractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rules, err := CompileRules(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	headers := cfg.SectionHeaders
	if len(headers) == 0 {
		headers = model.DefaultSectionHeaders
	}
	n := normalize.New(cfg)

	return &Extractor{
		segmenter:  segment.New(headers, logger),
		rules:      rules,
		fields:     NewFieldExtractor(rules, n, logger),
		checkbox:   NewCheckboxExtractor(),
		normalizer: n,
		logger:     logger,
	}, nil
}

// Normalizer exposes the value normalizer shared with post-processing.
func (e *Extractor) Normalizer() *normalize.Normalizer {
	return e.normalizer
}

// Extract builds a complete record from raw email text. It never fails:
// anything that cannot be resolved holds its sentinel.
func (e *Extractor) Extract(text string) (*model.Record, *Diagnostics) {
	full := normalize.Text(text)
	sections := e.segmenter.Segment(full)
	rec := model.NewRecord()
	diag := &Diagnostics{}

	for _, header := range e.segmenter.Headers() {
		body := sections[header]
		if body == "" {
			diag.MissingSections = append(diag.MissingSections, header)
		}
		section := model.CanonicalSection(header)
		handle, ok := handlers[section]
		if !ok {
			e.logger.Debug("no extractor for section", zap.String("section", header))
			continue
		}
		e.runSection(handle, rec, diag, section, body, full)
	}
	return rec, diag
}

func (e *Extractor) runSection(handle sectionHandler, rec *model.Record, diag *Diagnostics, section, body, full string) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("section %q: %v", section, r)
			diag.Warnings = append(diag.Warnings, msg)
			e.logger.Warn("section extraction failed",
				zap.String("kind", string(model.KindExtraction)),
				zap.String("section", section),
				zap.Any("error", r))
		}
	}()
	handle(e, rec, diag, section, body, full)
}

func extractFields(e *Extractor, rec *model.Record, diag *Diagnostics, section, body, _ string) {
	values := e.fields.ExtractSection(section, body)
	for _, rule := range e.rules.Section(section) {
		field, ok := model.FieldByName(rule.Name)
		if !ok {
			continue
		}
		v := values[rule.Name]
		field.Set(rec, v.Value)
		if v.Source == SourceFallback {
			diag.Fallback = append(diag.Fallback, rule.Name)
		}
		if v.Source != SourceNone && !v.Normalized && v.Value != model.NA {
			diag.Unnormalized = append(diag.Unnormalized, rule.Name)
		}
	}
}

func extractCheckboxes(e *Extractor, rec *model.Record, _ *Diagnostics, _, body, full string) {
	text := body
	if text == "" {
		text = full
	}
	rec.AssignmentType = e.checkbox.Extract(text)
}

// extractAdditionalDetails takes the section body when the header stands on
// its own line, otherwise the inline "Additional details/...: value" form.
func extractAdditionalDetails(e *Extractor, rec *model.Record, diag *Diagnostics, section, body, full string) {
	if body != "" {
		rec.AdditionalDetails = body
		return
	}
	extractFields(e, rec, diag, section, full, full)
}

func extractAttachments(e *Extractor, rec *model.Record, diag *Diagnostics, _, body, full string) {
	if body != "" {
		rec.Attachments = e.normalizer.Attachments(body)
		return
	}
	rule := e.rules.Attachments()
	if rule == nil {
		return
	}
	raw, source := rule.Match(full)
	if source == SourceFallback {
		diag.Fallback = append(diag.Fallback, model.AttachmentsField)
	}
	rec.Attachments = e.normalizer.Attachments(raw)
}
