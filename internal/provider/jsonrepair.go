package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Repair recovers a JSON object from loose model output. Best effort:
// strip Markdown code fences, extract the first balanced {...} block,
// then normalize Python-style literals. Failure is a normal outcome and
// is reported as an error, never a panic.
func Repair(raw string) (string, error) {
	s := stripFences(raw)

	obj, ok := extractObject(s)
	if !ok {
		return "", fmt.Errorf("no JSON object found in response")
	}

	// Already strict JSON: leave it alone so apostrophes inside valid
	// strings are not mangled by the quote normalizer.
	if json.Valid([]byte(obj)) {
		return obj, nil
	}

	return normalizeTokens(obj), nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// stripFences unwraps ```json ... ``` blocks, returning the inner text of
// the first fenced block if any, otherwise the input unchanged.
func stripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// extractObject returns the first balanced top-level {...} block,
// respecting string literals and escapes.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
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
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

var (
	trueRe        = regexp.MustCompile(`\bTrue\b`)
	falseRe       = regexp.MustCompile(`\bFalse\b`)
	noneRe        = regexp.MustCompile(`\bNone\b`)
	singleQuoteRe = regexp.MustCompile(`'([^'\\]*)'`)
	trailCommaRe  = regexp.MustCompile(`,\s*([}\]])`)
)

// normalizeTokens converts loose literals to strict JSON: Python booleans,
// None, single-quoted strings, and trailing commas.
func normalizeTokens(s string) string {
	s = trueRe.ReplaceAllString(s, "true")
	s = falseRe.ReplaceAllString(s, "false")
	s = noneRe.ReplaceAllString(s, "null")
	s = singleQuoteRe.ReplaceAllString(s, `"$1"`)
	s = trailCommaRe.ReplaceAllString(s, "$1")
	return s
}
