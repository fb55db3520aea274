package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
)

// CheckboxExtractor reads the "Assignment Type" checkbox group
type CheckboxExtractor struct {
	wind       *regexp.Regexp
	structural *regexp.Regexp
	hail       *regexp.Regexp
	foundation *regexp.Regexp
	other      *regexp.Regexp
}

// NewCheckboxExtractor compiles the checkbox patterns.
func NewCheckboxExtractor() *CheckboxExtractor {
	return &CheckboxExtractor{
		wind:       checkedBox("Wind"),
		structural: checkedBox("Structural"),
		hail:       checkedBox("Hail"),
		foundation: checkedBox("Foundation"),
		other: regexp.MustCompile(`(?i)\bOther[ \t]*\[[ \t]*([xX])[ \t]*\]` +
			`[ \t]*(?:[-–:][ \t]*)?(?:provide details[ \t]*:?[ \t]*)?([^\n]*)`),
	}
}

// checkedBox matches "<Label> [x]" with any spacing inside the brackets.
func checkedBox(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + `[ \t]*\[[ \t]*([xX])[ \t]*\]`)
}

// Extract returns the checkbox group found in text. Unmatched flags are
// false; the Other details are N/A unless text follows a checked box.
func (c *CheckboxExtractor) Extract(text string) model.AssignmentType {
	at := model.AssignmentType{
		Wind:       c.wind.MatchString(text),
		Structural: c.structural.MatchString(text),
		Hail:       c.hail.MatchString(text),
		Foundation: c.foundation.MatchString(text),
		Other:      model.OtherCheck{Details: model.NA},
	}

	if m := c.other.FindStringSubmatch(text); m != nil {
		at.Other.Checked = true
		if details := strings.TrimSpace(m[2]); details != "" {
			at.Other.Details = details
		}
	}
	return at
}

var defaultCheckbox = NewCheckboxExtractor()

// ExtractAssignmentType reads the checkbox group with the built-in patterns.
func ExtractAssignmentType(text string) model.AssignmentType {
	return defaultCheckbox.Extract(text)
}
