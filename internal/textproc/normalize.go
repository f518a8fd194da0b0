// Package textproc turns raw email text into the canonical form the scoring engine
// consumes: normalized lowercase text, a lemma token stream and numeric features.
package textproc

import (
	"regexp"
	"strings"

	"github.com/mikey/mailguard/internal/utils"
	"golang.org/x/net/html"
)

// Placeholder tokens substituted for URLs, addresses, phone numbers and inline images.
const (
	URLToken   = "<URL>"
	EmailToken = "<EMAIL>"
	PhoneToken = "<PHONE>"
	ImageToken = "<IMAGE>"
)

// mojibake maps UTF-8 punctuation that was misread as CP437 or Windows-1252 back to a
// plain ASCII equivalent.
var mojibake = strings.NewReplacer(
	"\u0393\u00c7\u00f3", "-",
	"\u0393\u00c7\u00f4", "-",
	"\u0393\u00c7\u00a3", `"`,
	"\u0393\u00c7\u00a5", `"`,
	"\u0393\u00c7\u00d6", "'",
	"\u0393\u00c7\u00fc", "u",
	"\u00e2\u0080\u0093", "-",
	"\u00e2\u0080\u0094", "-",
	"\u00e2\u0080\u009c", `"`,
	"\u00e2\u0080\u0099", "'",
	"\u00e2\u0080\u00a2", "-",
	"\u00c3\u00a9", "e",
	"\ufeff", "",
)

// forwardMarkers are checked in order; the first one present truncates the text.
var forwardMarkers = []string{
	"forwarded message",
	"---------- forwarded message",
	"from:",
}

var (
	urlRe         = regexp.MustCompile(`(?i)https?://[^\s\p{Z}]+|www\.[^\s\p{Z}]+`)
	emailRe       = regexp.MustCompile(`\b[\w.\-]+@[\w.\-]+\.\w+\b`)
	phoneRe       = regexp.MustCompile(`\+?\d[\d\-\s]{7,}\d`)
	imageRe       = regexp.MustCompile(`(?i)\[image:[^\]]*\]`)
	tagRe         = regexp.MustCompile(`<[^<>]+>`)
	placeholderRe = regexp.MustCompile(`(?i)^<(?:url|email|phone|image)>$`)
	spaceRe       = regexp.MustCompile(`[\s\p{Z}\x{85}]+`)
)

// Normalize cleans raw email text. It is total: empty or malformed input yields a best
// effort result, never an error, and already normalized text is returned unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := utils.SanitizeUTF8(raw)
	text = mojibake.Replace(text)
	text = unescapeAll(text)
	text = stripForwarded(text)

	text = replacePlaceholders(text)
	text = tagRe.ReplaceAllStringFunc(text, func(tag string) string {
		if placeholderRe.MatchString(tag) {
			return " " + tag + " "
		}
		return " "
	})
	text = spaceRe.ReplaceAllString(text, " ")
	// Dropping tags can join fragments into a new address or phone run.
	text = replacePlaceholders(text)
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}

func replacePlaceholders(text string) string {
	text = urlRe.ReplaceAllString(text, " "+URLToken+" ")
	text = emailRe.ReplaceAllString(text, " "+EmailToken+" ")
	text = phoneRe.ReplaceAllString(text, " "+PhoneToken+" ")
	return imageRe.ReplaceAllString(text, " "+ImageToken+" ")
}

// unescapeAll decodes HTML entities until none are left, so nested encodings such as
// "&amp;lt;" end up as plain characters.
func unescapeAll(text string) string {
	for {
		next := html.UnescapeString(text)
		if next == text {
			return text
		}
		text = next
	}
}

// stripForwarded keeps only the text before the first forward marker found.
func stripForwarded(text string) string {
	lower := asciiLower(text)
	for _, marker := range forwardMarkers {
		if i := strings.Index(lower, marker); i >= 0 {
			return text[:i]
		}
	}
	return text
}

// asciiLower lowercases ASCII letters only, keeping byte offsets aligned with s.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
