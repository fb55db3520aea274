package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
)

var codeFence = regexp.MustCompile("```(?:json|JSON)?[ \t]*")

// CleanResponse strips markdown code fences and returns the first
// balanced JSON object in the response.
func CleanResponse(response string) (string, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(response, ""))
	obj, ok := ExtractJSONObject(cleaned)
	if !ok {
		return "", model.ErrNoJSONObject
	}
	return obj, nil
}

// ExtractJSONObject returns the first balanced {...} span of s. Braces
// inside JSON strings do not count.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeRecord decodes a cleaned JSON object into a Record. Unknown keys
// are rejected so the caller's schema check sees exactly what the model
// produced.
func DecodeRecord(obj string) (*model.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
	dec.DisallowUnknownFields()

	var rec model.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
