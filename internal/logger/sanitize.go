package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxPathLength = 500

	// MaxStringLength bounds any other request-derived value in a log
	// line.
	MaxStringLength = 2000
)

// SanitizePath prepares a URL path for logging: valid UTF-8, no
// control characters, bounded length. Paths come straight from the
// client and can contain anything.
func SanitizePath(path string) string {
	return SanitizeString(path, maxPathLength)
}

// SanitizeString strips control characters, repairs invalid UTF-8 and
// truncates to maxLength. maxLength <= 0 falls back to
// MaxStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxStringLength
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}
