// Package strutil provides small string helpers shared by the CLI and TUI.
package strutil

// Truncate shortens s to at most n runes, replacing the final rune with an
// ellipsis. Strings already within the limit are returned unchanged, as are
// calls with a width too small to hold the ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n < 1 || len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
