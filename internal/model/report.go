package model

import "time"

// Report is the host-level result of parsing one email: the accepted
// record plus diagnostics that never affect the record itself.
type Report struct {
	Source    string    `json:"source,omitempty"`     // file path or "stdin"
	Strategy  string    `json:"strategy"`             // strategy that produced the record
	RequestID string    `json:"request_id,omitempty"` // correlates log lines of one parse
	ParsedAt  time.Time `json:"parsed_at"`
	Cached    bool      `json:"cached,omitempty"` // served from the record cache

	Record   *Record  `json:"record"`
	Coverage Coverage `json:"coverage"`
}

// Coverage is the transparent field-coverage breakdown of a record
type Coverage struct {
	Resolved   int      `json:"resolved"`   // fields holding a real value
	Total      int      `json:"total"`      // string fields in the schema
	Ratio      float64  `json:"ratio"`      // resolved / total
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals"`
}

// Signal represents a diagnostic signal with its scoring inputs
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalFieldCoverage      SignalType = "field_coverage"      // resolved-to-total ratio
	SignalMissingSections    SignalType = "missing_sections"    // headers absent from the email
	SignalFallbackValues     SignalType = "fallback_values"     // values taken from fallback patterns
	SignalUnnormalized       SignalType = "unnormalized_values" // values kept raw by the normalizer
	SignalUnresolvedContact  SignalType = "unresolved_contact"  // contact fields still N/A
	SignalExtractionWarnings SignalType = "extraction_warnings" // recovered section failures
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// ContactFields are the display names of the fields a dispatcher needs to
// reach the insured and the adjuster.
var ContactFields = []string{
	"Name",
	"Contact #",
	"Adjuster Name",
	"Adjuster Phone Number",
	"Adjuster Email",
}
