// Package strings holds small text helpers shared by the output formatters.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the default maximum width of a value in table output.
const DefaultCellMaxLen = 48

// MinTruncateLen is the minimum maxLen accepted by Truncate: one character
// plus "...".
const MinTruncateLen = 4

// Truncate shortens s to at most maxLen runes and puts it on a single line.
// Whitespace runs, newlines included, collapse to one space and "..." marks a
// cut. A maxLen below MinTruncateLen is raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// TruncatePath shortens a dotted field path from the left, keeping the
// leaf segments that identify the field.
func TruncatePath(path string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	runes := []rune(path)
	if len(runes) <= maxLen {
		return path
	}
	return "..." + string(runes[len(runes)-(maxLen-3):])
}
