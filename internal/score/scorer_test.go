package score

import (
	"testing"

	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/model"
)

func fullRecord() *model.Record {
	rec := model.NewRecord()
	for _, f := range model.Fields {
		f.Set(rec, "value")
	}
	return rec
}

func findSignal(signals []model.Signal, typ model.SignalType) (model.Signal, bool) {
	for _, s := range signals {
		if s.Type == typ {
			return s, true
		}
	}
	return model.Signal{}, false
}

func TestScorer_EmptyRecord(t *testing.T) {
	result := Coverage(model.NewRecord(), nil)

	if result.Resolved != 0 {
		t.Errorf("Expected 0 resolved fields, got %d", result.Resolved)
	}
	if result.Total != len(model.Fields) {
		t.Errorf("Expected total %d, got %d", len(model.Fields), result.Total)
	}
	if result.Confidence != "low" {
		t.Errorf("Expected low confidence, got %s", result.Confidence)
	}

	cov, ok := findSignal(result.Signals, model.SignalFieldCoverage)
	if !ok || cov.Severity != model.SeverityCritical {
		t.Errorf("Expected critical coverage signal, got %+v", cov)
	}
	contact, ok := findSignal(result.Signals, model.SignalUnresolvedContact)
	if !ok || contact.Severity != model.SeverityCritical {
		t.Errorf("Expected critical contact signal, got %+v", contact)
	}
}

func TestScorer_FullRecord(t *testing.T) {
	result := Coverage(fullRecord(), nil)

	if result.Resolved != result.Total {
		t.Errorf("Expected all fields resolved, got %d/%d", result.Resolved, result.Total)
	}
	if result.Ratio != 1 {
		t.Errorf("Expected ratio 1, got %f", result.Ratio)
	}
	if result.Confidence != "high" {
		t.Errorf("Expected high confidence, got %s", result.Confidence)
	}
	if _, ok := findSignal(result.Signals, model.SignalUnresolvedContact); ok {
		t.Error("Expected no contact signal for a full record")
	}
}

func TestScorer_MissingContactDowngradesConfidence(t *testing.T) {
	rec := fullRecord()
	rec.AdjusterInformation.AdjusterEmail = model.NA

	result := Coverage(rec, nil)

	if result.Confidence != "medium" {
		t.Errorf("Expected medium confidence with a missing contact, got %s", result.Confidence)
	}
	contact, ok := findSignal(result.Signals, model.SignalUnresolvedContact)
	if !ok {
		t.Fatal("Expected unresolved contact signal")
	}
	if contact.Severity != model.SeverityWarning {
		t.Errorf("Expected warning severity, got %s", contact.Severity)
	}
	fields, _ := contact.Data["fields"].([]string)
	if len(fields) != 1 || fields[0] != "Adjuster Email" {
		t.Errorf("Expected [Adjuster Email], got %v", fields)
	}
}

func TestScorer_DiagnosticSignals(t *testing.T) {
	diag := &extract.Diagnostics{
		MissingSections: []string{model.SectionAttachments},
		Fallback:        []string{"Policy #"},
		Unnormalized:    []string{"Date of Loss/Occurrence"},
		Warnings:        []string{"boom"},
	}

	result := Coverage(fullRecord(), diag)

	for _, typ := range []model.SignalType{
		model.SignalMissingSections,
		model.SignalFallbackValues,
		model.SignalUnnormalized,
		model.SignalExtractionWarnings,
	} {
		if _, ok := findSignal(result.Signals, typ); !ok {
			t.Errorf("Expected %s signal", typ)
		}
	}
}

func TestScorer_NilRecord(t *testing.T) {
	result := Coverage(nil, nil)
	if result.Resolved != 0 || result.Confidence != "low" {
		t.Errorf("Expected empty low-confidence coverage, got %+v", result)
	}
}

func TestScorer_DetermineConfidence(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		ratio    float64
		missing  int
		expected string
	}{
		{0.9, 0, "high"},
		{0.9, 1, "medium"},
		{0.6, 0, "medium"},
		{0.3, 0, "low"},
		{0.9, len(model.ContactFields), "low"},
	}

	for _, tt := range tests {
		got := s.determineConfidence(tt.ratio, tt.missing)
		if got != tt.expected {
			t.Errorf("determineConfidence(%.1f, %d): expected %s, got %s", tt.ratio, tt.missing, tt.expected, got)
		}
	}
}
