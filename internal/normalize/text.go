package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text prepares raw email text for segmentation: NFKC folding (so
// non-breaking spaces and full-width colons match the patterns), removal
// of invisible format characters, and LF line endings.
func Text(raw string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))
	out, _, err := transform.String(t, raw)
	if err != nil {
		out = raw
	}
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.ReplaceAll(out, "\r", "\n")
}
