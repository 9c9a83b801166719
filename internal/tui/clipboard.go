package tui

import "github.com/atotto/clipboard"

// copyToClipboard writes text to the system clipboard. Callers are expected
// to fall back to manual selection when no clipboard is available (common
// over SSH or on headless hosts).
func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
