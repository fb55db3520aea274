// Package segment splits an assignment email into named sections.
package segment

import (
	"strings"

	"go.uber.org/zap"
)

// Segmenter detects whole-line section headers
type Segmenter struct {
	headers []string          // configured order
	lookup  map[string]string // lower-cased header -> configured spelling
	logger  *zap.Logger
}

// New creates a segmenter for the given ordered header list.
// A nil logger disables logging.
func New(headers []string, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Segmenter{
		headers: make([]string, 0, len(headers)),
		lookup:  make(map[string]string, len(headers)),
		logger:  logger,
	}
	for _, h := range headers {
		key := headerKey(h)
		if key == "" {
			continue
		}
		if _, dup := s.lookup[key]; dup {
			continue
		}
		s.lookup[key] = h
		s.headers = append(s.headers, h)
	}
	return s
}

// Headers returns the configured headers in order.
func (s *Segmenter) Headers() []string {
	return append([]string{}, s.headers...)
}

// Segment maps every configured header to the text that follows it.
// Lines are trimmed and blank lines dropped. Lines before the first
// recognized header are discarded. A repeated header resets its body.
// Headers absent from the text map to "".
func (s *Segmenter) Segment(text string) map[string]string {
	bodies := make(map[string][]string, len(s.headers))
	current := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if header, ok := s.MatchHeader(line); ok {
			current = header
			bodies[header] = nil
			continue
		}
		if current == "" {
			continue
		}
		bodies[current] = append(bodies[current], line)
	}

	sections := make(map[string]string, len(s.headers))
	for _, h := range s.headers {
		lines, found := bodies[h]
		if !found {
			s.logger.Debug("section not found", zap.String("section", h))
		}
		sections[h] = strings.Join(lines, "\n")
	}
	return sections
}

// MatchHeader reports whether line is exactly one of the configured
// headers, ignoring case and an optional trailing colon.
func (s *Segmenter) MatchHeader(line string) (string, bool) {
	h, ok := s.lookup[headerKey(line)]
	return h, ok
}

// Segment is a convenience wrapper for one-off segmentation.
func Segment(text string, headers []string) map[string]string {
	return New(headers, nil).Segment(text)
}

func headerKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	return strings.ToLower(strings.TrimSpace(s))
}
