// Package lexicon implements C1: normalization, tokenization, Polish
// pluralization/ordinals, distance formatting, and cuisine alias expansion.
package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticFold transform.Transformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, folds Polish diacritics (ą→a, ł→l, ż/ź→z, …) and
// collapses internal whitespace. It is idempotent: Normalize(Normalize(x))
// == Normalize(x).
func Normalize(s string) string {
	folded, _, err := transform.String(diacriticFold, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	// 'ł' does not decompose under NFD (it is not l + combining mark), so
	// fold it explicitly.
	folded = strings.ReplaceAll(folded, "ł", "l")
	return collapseWhitespace(folded)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// Tokenize splits normalized text on word boundaries.
func Tokenize(s string) []string {
	norm := Normalize(s)
	return strings.FieldsFunc(norm, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

// FuzzyIncludes reports whether needle is present in hay either as a
// normalized substring or via sufficient token overlap (≥ threshold
// fraction of needle's tokens present in hay's tokens).
func FuzzyIncludes(hay, needle string) bool {
	normHay := Normalize(hay)
	normNeedle := Normalize(needle)
	if normNeedle == "" {
		return false
	}
	if strings.Contains(normHay, normNeedle) {
		return true
	}

	hayTokens := tokenSet(Tokenize(hay))
	needleTokens := Tokenize(needle)
	if len(needleTokens) == 0 {
		return false
	}
	matched := 0
	for _, t := range needleTokens {
		if hayTokens[t] {
			matched++
		}
	}
	const threshold = 0.6
	return float64(matched)/float64(len(needleTokens)) >= threshold
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
