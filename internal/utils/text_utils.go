package utils

import (
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// dropIllFormed marks ill-formed byte sequences and then removes the markers.
var dropIllFormed = transform.Chain(
	runes.ReplaceIllFormed(),
	runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
)

// SanitizeUTF8 returns text with every ill-formed UTF-8 sequence removed. Valid input is
// returned unchanged.
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	out, _, err := transform.String(dropIllFormed, text)
	if err != nil {
		return ""
	}
	return out
}

// TruncateText truncates text to at most maxSize bytes without splitting a rune. A
// non-positive maxSize disables truncation.
func TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}
	truncated := text[:maxSize]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}
