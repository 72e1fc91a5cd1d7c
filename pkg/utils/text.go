// Package utils provides shared utilities for text and logging.
package utils

// Truncate returns s shortened to maxLen runes, with "..." appended when
// anything was cut. If maxLen is 0 or negative, s is returned unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
