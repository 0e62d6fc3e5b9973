package lexicon

// cuisineExpansion is the one-to-many alias map surfaced to the catalog
// repository as an `IN` filter. Keys are stored normalized so lookups can
// go straight through Normalize(); values are the catalog's own cuisine
// names, as stored.
var cuisineExpansion = map[string][]string{
	"azjatyckie": {"Wietnamska", "Chinska", "Tajska", "Japonska", "Koreanska"},
	"wloskie":    {"Wloska"},
	"fastfood":   {"Fast Food", "Burger", "Kebab"},
	"polskie":    {"Polska"},
	"orientalne": {"Turecka", "Libanska", "Arabska"},
	"morskie":    {"Owoce Morza", "Sushi"},
}

// ExpandCuisine resolves a cuisine phrase to the concrete catalog cuisine
// values it should be matched against. If the phrase isn't a known alias
// group, it is returned unchanged as a single-element slice so an exact
// catalog cuisine name still matches.
func ExpandCuisine(phrase string) []string {
	key := Normalize(phrase)
	if values, ok := cuisineExpansion[key]; ok {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}
	return []string{phrase}
}

// IsKnownCuisineAlias reports whether phrase names a multi-cuisine alias
// group (e.g. "azjatycka").
func IsKnownCuisineAlias(phrase string) bool {
	_, ok := cuisineExpansion[Normalize(phrase)]
	return ok
}
