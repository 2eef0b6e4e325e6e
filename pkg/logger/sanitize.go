package logger

import (
	"log/slog"
	"strings"
)

// RedactedAttr returns a redacted slog attribute for sensitive values
// In production, returns "[REDACTED]"; in development, returns the actual value
func RedactedAttr(key, value, env string) slog.Attr {
	return slog.String(key, Redact(value, env))
}

// Redact hides value outside development-like environments.
func Redact(value, env string) string {
	if env == "production" {
		return "[REDACTED]"
	}
	return value
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password",
		"token",
		"secret",
		"session",
		"csrf",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

// IsSensitiveKey reports whether a form or header name must not be echoed.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return k == "cookie" || k == "authorization" || SanitizeQueryString(k)
}
