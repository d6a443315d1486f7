package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPreviewLength caps preview strings in logs.
	MaxPreviewLength = 200
	// maxDebugContentLength caps previews when full debug logging is on.
	maxDebugContentLength = 10000
	// RedactedValue replaces sensitive data in logs.
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey redacts an API key for logging, keeping only the
// first and last four characters.
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt produces a log-safe preview of a prompt. Sanitized
// even in full mode to keep control characters out of the log stream.
func SanitizePrompt(prompt string, fullLog bool) string {
	return sanitizeForLogging(prompt, fullLog)
}

// SanitizeResponse produces a log-safe preview of a model response.
func SanitizeResponse(response string, fullLog bool) string {
	return sanitizeForLogging(response, fullLog)
}

func sanitizeForLogging(s string, fullLog bool) string {
	if s == "" {
		return ""
	}
	maxLen := MaxPreviewLength
	if fullLog {
		maxLen = maxDebugContentLength
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

	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
