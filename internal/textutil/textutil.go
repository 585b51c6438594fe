// Package textutil provides the token-level normalisation shared by grammar
// induction and parsing.
package textutil

import (
	"regexp"
	"strings"
)

// numeralRe matches digits with at most one internal '.' or ',' separator,
// e.g. "42", "3.14", "1,000".
var numeralRe = regexp.MustCompile(`^[0-9]+(?:[.,][0-9]+)?$`)

// IsNumeral reports whether token is a number in the treebank sense.
func IsNumeral(token string) bool {
	return numeralRe.MatchString(token)
}

// Tokenize splits a sentence on whitespace.
func Tokenize(sentence string) []string {
	return strings.Fields(sentence)
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Normalize applies the word-level folding used on both sides of the model:
// lower-casing when lower is set, then the numeral code when numerate is set
// and the word is a numeral.
func Normalize(word string, lower, numerate bool, numeralCode string) string {
	if lower {
		word = strings.ToLower(word)
	}
	if numerate && IsNumeral(word) {
		return numeralCode
	}
	return word
}
