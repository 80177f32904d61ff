package logging

import (
	"regexp"
	"unicode/utf8"
)

const (
	// MaxValueLogLength caps user-supplied values (serial numbers, paths) in log lines.
	MaxValueLogLength = 64
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in postgres:// and sqlserver:// URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/?\s]+`)
)

// SanitizeConnectionString removes credentials from a connection string.
// Use this before logging any DSN.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError renders a driver error with credentials removed.
// Database drivers echo the DSN on some connection failures.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}

// TruncateValue shortens s to MaxValueLogLength runes.
func TruncateValue(s string) string {
	return TruncateString(s, MaxValueLogLength)
}

// TruncateString truncates s to maxLen runes and adds an ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
