package lexicon

import (
	"fmt"
	"strconv"
	"strings"
)

// PluralForms holds the three Polish plural forms: singular (1), the
// "few" form (2-4, excluding teens), and the "many"/other form.
type PluralForms struct {
	One   string
	Few   string
	Other string
}

// PluralPl picks the correct Polish plural form for n, following the
// standard Polish cardinal-number pluralization rule:
//   - n == 1                                  → One
//   - n % 10 in [2,4] and n % 100 not in [12,14] → Few
//   - otherwise                                → Other
func PluralPl(n int, forms PluralForms) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs == 1:
		return forms.One
	case abs%10 >= 2 && abs%10 <= 4 && !(abs%100 >= 12 && abs%100 <= 14):
		return forms.Few
	default:
		return forms.Other
	}
}

// ordinalWords maps Polish ordinal-adjective stems (as they appear once
// diacritics are folded and the word is lowercased) to their numeric value.
// Matching is prefix-based against the stem, tolerating case endings
// (pierwsza/pierwszy/pierwsze all share the "pierwsz" stem).
var ordinalWords = []struct {
	stem  string
	value int
}{
	{"pierwsz", 1},
	{"drugi", 2},
	{"druga", 2},
	{"drugie", 2},
	{"trzeci", 3},
	{"czwart", 4},
	{"piat", 5},
	{"szost", 6},
	{"siodm", 7},
	{"osm", 8},
	{"dziewiat", 9},
	{"dziesiat", 10},
}

// ParseOrdinalPl converts a Polish ordinal word ("pierwszy", "drugą", …) to
// its 1-indexed numeric value. Returns (0, false) if text does not match a
// known ordinal stem (plain digits should be tried by the caller first).
func ParseOrdinalPl(text string) (int, bool) {
	norm := Normalize(text)
	for _, tok := range strings.Fields(norm) {
		for _, ow := range ordinalWords {
			if strings.HasPrefix(tok, ow.stem) {
				return ow.value, true
			}
		}
	}
	return 0, false
}

// cardinalWords maps Polish cardinal number words to their numeric value,
// used by the order parser to read quantities like "dwa kebaby".
var cardinalWords = map[string]int{
	"jeden":     1,
	"jedna":     1,
	"dwa":       2,
	"dwie":      2,
	"trzy":      3,
	"cztery":    4,
	"piec":      5,
	"szesc":     6,
	"siedem":    7,
	"osiem":     8,
	"dziewiec":  9,
	"dziesiec":  10,
}

// CardinalValue resolves a single normalized token to its cardinal value
// ("dwa" → 2). Used by the order parser to recognize and strip quantity
// words when isolating an item name.
func CardinalValue(token string) (int, bool) {
	n, ok := cardinalWords[token]
	return n, ok
}

// ParseQuantity extracts the first explicit digit or Polish cardinal word
// quantity from text. Returns (0, false) if none found.
func ParseQuantity(text string) (int, bool) {
	for _, tok := range Tokenize(text) {
		if n, err := strconv.Atoi(tok); err == nil && n > 0 {
			return n, true
		}
		if n, ok := cardinalWords[tok]; ok {
			return n, true
		}
	}
	return 0, false
}

// ParseListPosition resolves a user utterance referencing a 1-indexed list
// position: an explicit digit ("2"), a Polish cardinal ("dwa"), or a Polish
// ordinal ("drugi"). It is shared by SelectRestaurantHandler and the
// pipeline's deictic-reference resolver.
func ParseListPosition(text string) (int, bool) {
	for _, tok := range Tokenize(text) {
		if n, err := strconv.Atoi(tok); err == nil && n > 0 {
			return n, true
		}
		if n, ok := CardinalValue(tok); ok {
			return n, true
		}
	}
	return ParseOrdinalPl(text)
}

// FormatDistance renders meters as a Polish-friendly distance string:
// under 1 km it's rendered in whole metres, otherwise kilometres with one
// decimal place.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(meters+0.5))
	}
	km := meters / 1000.0
	return fmt.Sprintf("%.1f km", km)
}

// polishOrdinalPrefixes renders 1-indexed list positions as "Po pierwsze,",
// "Po drugie,", ….
var polishOrdinalPrefixes = []string{
	"", // 1-indexed; index 0 unused
	"Po pierwsze",
	"Po drugie",
	"Po trzecie",
	"Po czwarte",
	"Po piate",
	"Po szoste",
	"Po siodme",
	"Po osme",
	"Po dziewiate",
	"Po dziesiate",
}

// OrdinalPrefixPl returns the "Po pierwsze," style prefix for a 1-indexed
// position, falling back to "Punkt N," beyond the named list.
func OrdinalPrefixPl(position int) string {
	if position >= 1 && position < len(polishOrdinalPrefixes) {
		return polishOrdinalPrefixes[position]
	}
	return fmt.Sprintf("Punkt %d", position)
}
