// Package errfmt sanitizes strings arriving from the engine process before
// they enter events and diagnostics. The engine is a foreign process; its
// error text and stop reasons are bounded and stripped of control characters
// before anything downstream sees them.
package errfmt

import (
	"unicode"
	"unicode/utf8"
)

// MaxLen caps engine-supplied message content.
const MaxLen = 4096

// MaxKindLen caps error kinds (short identifiers).
const MaxKindLen = 128

// MaxReasonLen caps stop reasons.
const MaxReasonLen = 64

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Truncate caps a message at MaxLen bytes with UTF-8-safe truncation.
func Truncate(s string) string {
	return truncateUTF8(s, MaxLen)
}

// SanitizeKind validates and truncates a raw error kind.
// Returns "" for strings containing control characters.
// Validate-then-truncate: control chars are rejected first, then
// rune-safe truncation ensures valid UTF-8 output.
func SanitizeKind(raw string) string {
	return sanitize(raw, MaxKindLen)
}

// SanitizeReason validates and truncates a raw stop reason.
// Returns "" for strings containing control characters; the caller falls
// back to its default reason.
func SanitizeReason(raw string) string {
	return sanitize(raw, MaxReasonLen)
}

func sanitize(raw string, limit int) string {
	for _, r := range raw {
		if unicode.IsControl(r) {
			return ""
		}
	}
	return truncateUTF8(raw, limit)
}
