package logger

import "strings"

// Truncate shortens s to limit runes, appending an ellipsis when truncated.
// Runs of whitespace, including newlines, collapse to one space so that
// multi-line prompts stay on a single log line.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
