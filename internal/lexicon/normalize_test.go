package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIsIdempotent(t *testing.T) {
	samples := []string{
		"  Szukam  Pizzerii W Bytomiu  ",
		"Łódź ŻÓŁĆ",
		"Kebab, proszę!",
		"",
	}
	for _, s := range samples {
		once := Normalize(s)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize should be idempotent for %q", s)
	}
}

func TestNormalizeFoldsDiacritics(t *testing.T) {
	assert.Equal(t, "lodz", Normalize("Łódź"))
	assert.Equal(t, "zolc gesl jazn", Normalize("żółć gęśl jaźń"))
}

func TestFuzzyIncludesSubstring(t *testing.T) {
	assert.True(t, FuzzyIncludes("Bar Praha Bytom", "Praha"))
	assert.True(t, FuzzyIncludes("bar praha bytom", "bar praha"))
	assert.False(t, FuzzyIncludes("Pizzeria Roma", "Kebab King"))
}

func TestPluralPl(t *testing.T) {
	forms := PluralForms{One: "miejsce", Few: "miejsca", Other: "miejsc"}
	assert.Equal(t, "miejsce", PluralPl(1, forms))
	assert.Equal(t, "miejsca", PluralPl(2, forms))
	assert.Equal(t, "miejsca", PluralPl(4, forms))
	assert.Equal(t, "miejsc", PluralPl(5, forms))
	assert.Equal(t, "miejsc", PluralPl(12, forms))
	assert.Equal(t, "miejsc", PluralPl(0, forms))
	assert.Equal(t, "miejsca", PluralPl(22, forms))
	assert.Equal(t, "miejsc", PluralPl(112, forms))
}

func TestParseOrdinalPl(t *testing.T) {
	n, ok := ParseOrdinalPl("pierwszy")
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = ParseOrdinalPl("drugą")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = ParseOrdinalPl("niebieski")
	assert.False(t, ok)
}

func TestParseQuantityCardinalWords(t *testing.T) {
	n, ok := ParseQuantity("dwa kebaby poprosze")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = ParseQuantity("chce 3 pizze")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = ParseQuantity("bez liczby")
	assert.False(t, ok)
}

func TestParseListPosition(t *testing.T) {
	n, ok := ParseListPosition("2")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = ParseListPosition("dwa")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = ParseListPosition("druga")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = ParseListPosition("kebab")
	assert.False(t, ok)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "500 m", FormatDistance(500))
	assert.Equal(t, "1.5 km", FormatDistance(1500))
	assert.Equal(t, "2.0 km", FormatDistance(2000))
}

func TestExpandCuisine(t *testing.T) {
	values := ExpandCuisine("azjatyckie")
	assert.Contains(t, values, "Wietnamska")
	assert.Contains(t, values, "Tajska")

	values = ExpandCuisine("Wloska")
	assert.Equal(t, []string{"Wloska"}, values)
}
