package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateToWidth cuts a string down to maxWidth display columns while
// passing ANSI escape sequences through untouched.
func truncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	var result strings.Builder
	width := 0
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			result.WriteRune(r)
			continue
		}
		if inEscape {
			result.WriteRune(r)
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}

		runeWidth := runewidth.RuneWidth(r)
		if width+runeWidth > maxWidth {
			break
		}
		result.WriteRune(r)
		width += runeWidth
	}

	return result.String()
}
