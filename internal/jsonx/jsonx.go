// Package jsonx recovers JSON objects from noisy LLM output.
package jsonx

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Clean strips markdown code fences and surrounding prose markers from a
// model response.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```json).
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// FirstObject returns the first balanced top-level JSON object in s,
// scanning brace depth while respecting string literals and escapes.
func FirstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// Recover cleans a raw model response, isolates the first JSON object, and
// unmarshals it into v.
func Recover(raw string, v any) error {
	cleaned := Clean(raw)
	obj, ok := FirstObject(cleaned)
	if !ok {
		return eris.New("jsonx: no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return eris.Wrap(err, "jsonx: unmarshal recovered object")
	}
	return nil
}
