// Package jsonx recovers a single JSON object from semi-structured LLM
// output. Models occasionally wrap the object in prose or code fences even
// when told not to; callers decode through ExtractObject instead of feeding
// raw responses to encoding/json.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject reports that no balanced {...} span was found in the input.
var ErrNoObject = errors.New("no balanced JSON object in response")

// StripCodeFences removes a leading ```/```json fence and a trailing ```.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject scans raw for the first balanced top-level JSON object and
// returns that span. Braces inside string literals are ignored; backslash
// escapes inside strings are honored. A regex cannot do this correctly for
// nested braces in string values, hence the explicit scanner.
func ExtractObject(raw string) (string, error) {
	s := StripCodeFences(raw)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
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
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoObject
}

// DecodeObject extracts the balanced object span and unmarshals it into v.
func DecodeObject(raw string, v any) error {
	span, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("decode extracted object: %w", err)
	}
	return nil
}
