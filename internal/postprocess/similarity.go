// Package postprocess holds the optional passes that run after extraction:
// fuzzy backfill of unresolved fields and declarative correction rules.
package postprocess

import (
	"strings"

	"github.com/agext/levenshtein"
)

// SimilarityFunc scores a against b on a 0..100 scale. An error means the
// scorer could not produce a score; callers skip the candidate.
type SimilarityFunc func(a, b string) (float64, error)

// PartialRatio scores the best alignment of the shorter string against
// every same-length window of the longer one, case-insensitively.
func PartialRatio(a, b string) (float64, error) {
	s := []rune(strings.ToLower(strings.TrimSpace(a)))
	l := []rune(strings.ToLower(strings.TrimSpace(b)))
	if len(s) > len(l) {
		s, l = l, s
	}
	if len(s) == 0 {
		return 0, nil
	}

	short := string(s)
	best := 0.0
	for i := 0; i+len(s) <= len(l); i++ {
		score := ratio(short, string(l[i:i+len(s)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best, nil
}

// Ratio is the whole-string similarity of a and b on a 0..100 scale.
func Ratio(a, b string) (float64, error) {
	return ratio(strings.ToLower(a), strings.ToLower(b)), nil
}

func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 100
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.Distance(a, b, nil)
	return 100 * (1 - float64(d)/float64(longest))
}
