package score

import (
	"fmt"

	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/model"
)

// Scorer calculates record coverage and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Coverage scores rec with a default scorer.
func Coverage(rec *model.Record, diag *extract.Diagnostics) model.Coverage {
	return NewScorer().Calculate(rec, diag)
}

// Calculate counts resolved fields and generates diagnostic signals. diag
// may be nil when the record did not come from the rule-based extractor.
func (s *Scorer) Calculate(rec *model.Record, diag *extract.Diagnostics) model.Coverage {
	if rec == nil {
		return model.Coverage{
			Total:      len(model.Fields),
			Confidence: "low",
			Signals: []model.Signal{{
				Type:        model.SignalFieldCoverage,
				Severity:    model.SeverityCritical,
				Description: "No record",
			}},
		}
	}

	var signals []model.Signal

	// 1. Field coverage
	resolved, ratio, coverageSignal := s.calculateCoverage(rec)
	signals = append(signals, coverageSignal)

	// 2. Contact fields
	unresolved, contactSignal := s.checkContacts(rec)
	if len(unresolved) > 0 {
		signals = append(signals, contactSignal)
	}

	// 3. Extraction diagnostics
	if diag != nil {
		signals = append(signals, s.diagnosticSignals(diag)...)
	}

	return model.Coverage{
		Resolved:   resolved,
		Total:      len(model.Fields),
		Ratio:      ratio,
		Confidence: s.determineConfidence(ratio, len(unresolved)),
		Signals:    signals,
	}
}

// calculateCoverage counts fields that hold something other than N/A
func (s *Scorer) calculateCoverage(rec *model.Record) (int, float64, model.Signal) {
	resolved := 0
	for _, f := range model.Fields {
		if f.Get(rec) != model.NA {
			resolved++
		}
	}
	total := len(model.Fields)
	ratio := float64(resolved) / float64(total)

	severity := model.SeverityInfo
	if ratio < 0.25 {
		severity = model.SeverityCritical
	} else if ratio < 0.5 {
		severity = model.SeverityWarning
	}

	return resolved, ratio, model.Signal{
		Type:        model.SignalFieldCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Resolved %d/%d fields (%.0f%%)", resolved, total, ratio*100),
		Data: map[string]interface{}{
			"resolved":    resolved,
			"total":       total,
			"ratio":       ratio,
			"attachments": len(rec.Attachments),
			"entities":    len(rec.Entities),
			"formula":     "resolved_fields / total_fields",
		},
	}
}

// checkContacts lists contact fields that are still unresolved
func (s *Scorer) checkContacts(rec *model.Record) ([]string, model.Signal) {
	var unresolved []string
	for _, name := range model.ContactFields {
		f, ok := model.FieldByName(name)
		if !ok {
			continue
		}
		if f.Get(rec) == model.NA {
			unresolved = append(unresolved, f.Name)
		}
	}
	if len(unresolved) == 0 {
		return nil, model.Signal{}
	}

	severity := model.SeverityWarning
	if len(unresolved) == len(model.ContactFields) {
		severity = model.SeverityCritical
	}
	return unresolved, model.Signal{
		Type:        model.SignalUnresolvedContact,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d contact fields unresolved", len(unresolved), len(model.ContactFields)),
		Data:        map[string]interface{}{"fields": unresolved},
	}
}

func (s *Scorer) diagnosticSignals(diag *extract.Diagnostics) []model.Signal {
	var signals []model.Signal
	if len(diag.MissingSections) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalMissingSections,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d section header(s) not found", len(diag.MissingSections)),
			Data:        map[string]interface{}{"sections": diag.MissingSections},
		})
	}
	if len(diag.Fallback) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalFallbackValues,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%d value(s) resolved by fallback patterns", len(diag.Fallback)),
			Data:        map[string]interface{}{"fields": diag.Fallback},
		})
	}
	if len(diag.Unnormalized) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalUnnormalized,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%d value(s) kept as written", len(diag.Unnormalized)),
			Data:        map[string]interface{}{"fields": diag.Unnormalized},
		})
	}
	if len(diag.Warnings) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalExtractionWarnings,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d section extractor(s) recovered from a failure", len(diag.Warnings)),
			Data:        map[string]interface{}{"warnings": diag.Warnings},
		})
	}
	return signals
}

// determineConfidence determines the confidence level from the ratio
func (s *Scorer) determineConfidence(ratio float64, unresolvedContacts int) string {
	if unresolvedContacts == len(model.ContactFields) {
		return "low"
	}

	confidence := "low"
	if ratio >= 0.8 {
		confidence = "high"
	} else if ratio >= 0.5 {
		confidence = "medium"
	}

	if confidence == "high" && unresolvedContacts > 0 {
		return "medium"
	}
	return confidence
}
