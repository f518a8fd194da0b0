package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

// NumericFeatureCount is the length of the vector returned by NumericFeatures.
const NumericFeatureCount = 4

var (
	urlCountRe   = regexp.MustCompile(`(?i)<url>|https?://\S+|www\.\S+`)
	emailCountRe = regexp.MustCompile(`(?i)<email>|\b[\w.\-]+@[\w.\-]+\.\w+\b`)
	imageMarkRe  = regexp.MustCompile(`(?i)\[image:|<image>`)
)

// Extract returns the lemma token stream and the numeric features of normalized text.
func Extract(normalized string) ([]string, [NumericFeatureCount]float64) {
	return Tokenize(normalized), NumericFeatures(normalized)
}

// Tokenize splits normalized text on whitespace and punctuation, keeps alphabetic tokens
// that are not stopwords and reduces each one with the Snowball English stemmer. The
// stemmer stands in for dictionary lemmatization.
func Tokenize(normalized string) []string {
	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if !isAlpha(w) {
			continue
		}
		w = strings.ToLower(w)
		if _, stop := stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, english.Stem(w, false))
	}
	return tokens
}

// NumericFeatures returns [url_count, email_count, has_image, text_length] for normalized,
// not yet lemmatized, text. The order matches the scaler stored with the model.
func NumericFeatures(normalized string) [NumericFeatureCount]float64 {
	var hasImage float64
	if imageMarkRe.MatchString(normalized) {
		hasImage = 1
	}
	return [NumericFeatureCount]float64{
		float64(len(urlCountRe.FindAllStringIndex(normalized, -1))),
		float64(len(emailCountRe.FindAllStringIndex(normalized, -1))),
		hasImage,
		float64(utf8.RuneCountInString(normalized)),
	}
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
