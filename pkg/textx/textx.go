// Package textx normalizes user-supplied text before it reaches prompts,
// logs, or cache keys.
package textx

import (
	"strings"
	"unicode"
)

// SanitizeText drops control characters that would corrupt a prompt or a
// structured log line, keeping tab, newline, and carriage return, and trims
// surrounding whitespace.
func SanitizeText(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
	return strings.TrimSpace(cleaned)
}

// NormalizeQuestion canonicalizes a question for cache fingerprinting:
// sanitized and case-folded so spacing, control-character, and
// capitalization variants share a key.
func NormalizeQuestion(s string) string {
	return strings.ToLower(SanitizeText(s))
}
