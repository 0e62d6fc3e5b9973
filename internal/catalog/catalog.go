// Package catalog implements C2: the in-memory static restaurant index used
// for fast NLU binding, plus the Repository collaborator interface
// backed by Postgres, and the nearby-search tile cache.
package catalog

import (
	"regexp"
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// Catalog is the immutable, boot-time-loaded restaurant index.
// It is read-mostly shared state — safe for concurrent read access
// once Build has returned.
type Catalog struct {
	restaurants []models.Restaurant
	byID        map[string]models.Restaurant
	automaton   ahocorasick.AhoCorasick
	// patternOwner maps an automaton pattern index back to the restaurant
	// it came from, so a hit can be resolved to a candidate restaurant.
	patternOwner []string
}

// Build compiles the static restaurant list into the lookup index. It scans
// each restaurant's name and every alias into a single Aho-Corasick
// automaton (a cheap multi-pattern pre-filter over the raw utterance); a
// word-boundary check then confirms each candidate match so a substring
// like "ok" inside "Bar Sokrates" never counts
//.
func Build(restaurants []models.Restaurant) *Catalog {
	c := &Catalog{
		restaurants: restaurants,
		byID:        make(map[string]models.Restaurant, len(restaurants)),
	}

	var patterns []string
	for _, r := range restaurants {
		c.byID[r.ID] = r
		patterns = append(patterns, lexicon.Normalize(r.Name))
		c.patternOwner = append(c.patternOwner, r.ID)
		for _, alias := range r.Aliases {
			patterns = append(patterns, lexicon.Normalize(alias))
			c.patternOwner = append(c.patternOwner, r.ID)
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	c.automaton = builder.Build(patterns)

	return c
}

// ByID returns a restaurant by id.
func (c *Catalog) ByID(id string) (models.Restaurant, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// All returns every restaurant in the static index.
func (c *Catalog) All() []models.Restaurant {
	return c.restaurants
}

// FindByText resolves free text to a single restaurant: the Aho-Corasick
// automaton proposes candidates (name or alias substrings present
// anywhere in the text), each candidate is then re-checked with a
// word-boundary regex against its matched name/alias, and candidates are
// ranked by matched-string length descending so the longest (most
// specific) match wins.
func (c *Catalog) FindByText(text string) (models.Restaurant, bool) {
	norm := lexicon.Normalize(text)
	matches := c.automaton.FindAll(norm)
	if len(matches) == 0 {
		return models.Restaurant{}, false
	}

	type candidate struct {
		restaurantID string
		matchedText  string
	}
	var candidates []candidate
	seen := map[string]bool{}
	for _, m := range matches {
		restaurantID := c.patternOwner[m.Pattern()]
		matchedText := norm[m.Start():m.End()]
		if wordBoundaryMatch(norm, matchedText) {
			key := restaurantID + "|" + matchedText
			if !seen[key] {
				seen[key] = true
				candidates = append(candidates, candidate{restaurantID, matchedText})
			}
		}
	}
	if len(candidates) == 0 {
		return models.Restaurant{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return len(candidates[i].matchedText) > len(candidates[j].matchedText)
	})

	return c.byID[candidates[0].restaurantID], true
}

var wordCharPattern = regexp.MustCompile(`^[\p{L}\p{N}]$`)

// wordBoundaryMatch verifies that the occurrence of needle inside hay is
// flanked by non-word characters (or string edges) on both sides.
func wordBoundaryMatch(hay, needle string) bool {
	idx := strings.Index(hay, needle)
	if idx < 0 {
		return false
	}
	before := rune(0)
	if idx > 0 {
		before = []rune(hay)[len([]rune(hay[:idx]))-1]
	}
	afterIdx := idx + len(needle)
	after := rune(0)
	if afterIdx < len(hay) {
		afterRunes := []rune(hay[afterIdx:])
		if len(afterRunes) > 0 {
			after = afterRunes[0]
		}
	}
	if before != 0 && wordCharPattern.MatchString(string(before)) {
		return false
	}
	if after != 0 && wordCharPattern.MatchString(string(after)) {
		return false
	}
	return true
}
