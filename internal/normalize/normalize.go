// Package normalize holds the pure value transforms applied to extracted
// fields. Every transform is total: it never fails and returns either a
// canonical value, the input unchanged, or the N/A sentinel.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/assignparse/internal/model"
)

// Normalizer applies configured transforms keyed by field kind
type Normalizer struct {
	dateLayouts []string
	positive    map[string]bool
	negative    map[string]bool
	extensions  []string
}

// New builds a normalizer from configuration. Empty lists fall back to
// the built-in defaults.
func New(cfg *model.Config) *Normalizer {
	layouts := cfg.DateFormats
	if len(layouts) == 0 {
		layouts = model.DefaultDateFormats
	}
	bools := cfg.BooleanValues
	if len(bools.Positive) == 0 && len(bools.Negative) == 0 {
		bools = model.DefaultBooleanValues()
	}
	exts := cfg.AttachmentExtensions
	if len(exts) == 0 {
		exts = model.DefaultAttachmentExtensions
	}

	n := &Normalizer{
		dateLayouts: append([]string{}, layouts...),
		positive:    tokenSet(bools.Positive),
		negative:    tokenSet(bools.Negative),
	}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		n.extensions = append(n.extensions, e)
	}
	return n
}

// Default returns a normalizer with the built-in configuration.
func Default() *Normalizer {
	return New(model.DefaultConfig())
}

// Apply routes raw through the transform for kind. The boolean result is
// false when the value could not be brought into canonical form.
func (n *Normalizer) Apply(kind model.FieldKind, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case model.KindDate:
		return n.Date(raw)
	case model.KindBoolean:
		v := n.Boolean(raw)
		return v, v != model.NA
	case model.KindPhone:
		return Phone(raw)
	case model.KindEmail:
		return Email(raw), true
	case model.KindOwnerTenant:
		v := OwnerTenant(raw)
		return v, v != model.NA
	default:
		if raw == "" {
			return model.NA, false
		}
		return raw, true
	}
}

// Date parses value with each configured layout in order and returns the
// first success as YYYY-MM-DD. When nothing parses, value is returned
// unchanged and ok is false.
func (n *Normalizer) Date(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == model.NA {
		return value, false
	}
	for _, layout := range n.dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return value, false
}

// Boolean maps value onto "Yes", "No" or N/A using the configured token sets.
func (n *Normalizer) Boolean(value string) string {
	key := booleanKey(value)
	switch {
	case key == "":
		return model.NA
	case n.positive[key]:
		return "Yes"
	case n.negative[key]:
		return "No"
	default:
		return model.NA
	}
}

// Phone formats 10-digit and 1-prefixed 11-digit numbers. Anything else is
// returned unmodified with ok false.
func Phone(value string) (string, bool) {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 10:
		return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:], true
	case len(d) == 11 && d[0] == '1':
		return "+1 (" + d[1:4] + ") " + d[4:7] + "-" + d[7:], true
	default:
		return value, false
	}
}

// Email lower-cases value verbatim.
func Email(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

var ownerTenantVocabulary = map[string]string{
	"owner":  "Owner",
	"tenant": "Tenant",
	"yes":    "Yes",
	"no":     "No",
}

// OwnerTenant accepts only owner, tenant, yes or no, capitalized.
func OwnerTenant(value string) string {
	if v, ok := ownerTenantVocabulary[strings.ToLower(strings.TrimSpace(value))]; ok {
		return v
	}
	return model.NA
}

var (
	attachmentSplit = regexp.MustCompile(`[,;\n•–-]`)
	attachmentURL   = regexp.MustCompile(`(?i)^(?:http|ftp)s?://` +
		`(?:[^:@\s/]+(?::[^@\s/]*)?@)?` +
		`(?:(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+(?:[a-z]{2,6}\.?|[a-z0-9-]{2,}\.?)|localhost|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)
)

// Attachments splits a raw attachment blob and keeps only tokens that
// look like files or URLs. Invalid tokens are dropped silently.
func (n *Normalizer) Attachments(raw string) []string {
	out := []string{}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, model.NA) {
		return out
	}
	for _, token := range attachmentSplit.Split(raw, -1) {
		token = strings.TrimSpace(token)
		if token != "" && n.IsValidAttachment(token) {
			out = append(out, token)
		}
	}
	return out
}

// IsValidAttachment reports whether token has an accepted extension or
// is shaped like a URL.
func (n *Normalizer) IsValidAttachment(token string) bool {
	lower := strings.ToLower(token)
	for _, ext := range n.extensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return attachmentURL.MatchString(token)
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[booleanKey(t)] = true
	}
	return set
}

// booleanKey lower-cases a token and drops whitespace inside a bracketed
// mark, so "[ x ]" and "[x]" compare equal the way checkboxes do.
func booleanKey(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	if len(key) >= 2 && (key[0] == '[' && key[len(key)-1] == ']' || key[0] == '(' && key[len(key)-1] == ')') {
		key = strings.Join(strings.Fields(key), "")
	}
	return key
}
