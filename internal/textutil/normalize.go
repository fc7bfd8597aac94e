// Package textutil provides lexical normalization for user queries and
// dataset text. All matching layers (intent rules, keyword scoring, TF-IDF)
// operate on the normalized form so that casing and punctuation never affect
// results.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes characters and strips combining marks, so that
// "café" normalizes the same as "cafe".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the input, folds diacritics, removes every character
// outside [a-z0-9\s], and trims surrounding whitespace.
// It is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw input
		// and let the ASCII filter below drop the bad bytes.
		folded = s
	}

	lower := strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.TrimSpace(b.String())
}

// Tokenize normalizes the input and splits it on whitespace.
// Returns nil for input that normalizes to the empty string.
func Tokenize(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
