package format

import (
	"fmt"

	"shipgate/internal/model"
)

// FmtPoints formats a point total, collapsing the blocker sentinel into a
// readable marker instead of a seven-digit number.
func FmtPoints(n int) string {
	if n >= model.BlockerPointsSentinel {
		return "BLOCKER"
	}
	return fmt.Sprintf("%d", n)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
