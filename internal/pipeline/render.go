package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/strategy"
)

// Output formats
const (
	FormatJSON      = "json"
	FormatQuickBase = "quickbase"
	FormatReport    = "report"
)

// Formats lists the accepted --format values.
var Formats = []string{FormatJSON, FormatQuickBase, FormatReport}

// QuickBaseField is one entry of the QuickBase field-id map
type QuickBaseField struct {
	ID    string
	Label string
	Value string
}

// QuickBase maps a record onto QuickBase field ids. The string fields take
// field_1 onwards in schema order; the checkbox group, special instructions
// and attachments close the list.
func QuickBase(rec *model.Record) []QuickBaseField {
	var out []QuickBaseField
	next := func(label, value string) {
		out = append(out, QuickBaseField{ID: fmt.Sprintf("field_%d", len(out)+1), Label: label, Value: value})
	}

	for _, f := range model.Fields {
		if f.Section == model.SectionAdditionalDetails {
			continue
		}
		next(f.Name, f.Get(rec))
	}
	next(model.SectionAssignmentType, checkedTypes(rec.AssignmentType))
	next(model.SectionAdditionalDetails, rec.AdditionalDetails)
	attachments := model.NA
	if len(rec.Attachments) > 0 {
		attachments = strings.Join(rec.Attachments, ", ")
	}
	next(model.SectionAttachments, attachments)
	return out
}

func checkedTypes(t model.AssignmentType) string {
	var names []string
	for _, c := range []struct {
		name    string
		checked bool
	}{
		{"Wind", t.Wind},
		{"Structural", t.Structural},
		{"Hail", t.Hail},
		{"Foundation", t.Foundation},
	} {
		if c.checked {
			names = append(names, c.name)
		}
	}
	if t.Other.Checked {
		other := "Other"
		if t.Other.Details != "" && t.Other.Details != model.NA {
			other += ": " + t.Other.Details
		}
		names = append(names, other)
	}
	if len(names) == 0 {
		return model.NA
	}
	return strings.Join(names, ", ")
}

// MarshalQuickBase renders the field map as a JSON object in field order.
func MarshalQuickBase(rec *model.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	fields := QuickBase(rec)
	for i, f := range fields {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "  %q: %s", f.ID, value)
		if i < len(fields)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Render encodes a parse result in the requested format.
func Render(w io.Writer, report *model.Report, format string) error {
	var data []byte
	var err error

	switch format {
	case "", FormatJSON:
		data, err = json.MarshalIndent(report.Record, "", "  ")
		data = append(data, '\n')
	case FormatQuickBase:
		data, err = MarshalQuickBase(report.Record)
	case FormatReport:
		data, err = json.MarshalIndent(report, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

// WriteFile renders report into path, creating parent directories.
func WriteFile(path string, report *model.Report, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Render(f, report, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a human-readable coverage summary.
func RenderSummary(w io.Writer, report *model.Report) {
	cov := report.Coverage
	cached := ""
	if report.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "%s: %s%s, %d/%d fields, confidence %s\n",
		report.Source, report.Strategy, cached, cov.Resolved, cov.Total, cov.Confidence)
	for _, s := range cov.Signals {
		if s.Severity == model.SeverityInfo {
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}
}

// RenderTrace prints the strategy transitions of one run.
func RenderTrace(w io.Writer, trace *strategy.Trace) {
	if trace == nil {
		return
	}
	fmt.Fprintf(w, "request %s\n", trace.RequestID)
	for _, step := range trace.Steps {
		line := fmt.Sprintf("  %-10s %-13s", step.Strategy, step.State)
		if step.Elapsed > 0 {
			line += fmt.Sprintf(" %dms", step.Elapsed.Milliseconds())
		}
		if step.Error != "" {
			line += "  " + step.Error
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
