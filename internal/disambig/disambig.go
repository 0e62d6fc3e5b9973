// Package disambig implements C9: resolving an utterance naming a dish to a
// single concrete menu item across the catalog, and extracting order
// details (quantity, size, extras) from that utterance.
package disambig

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// Outcome kinds.
const (
	ItemNotFound          = "ITEM_NOT_FOUND"
	AddItem               = "ADD_ITEM"
	DisambiguationRequired = "DISAMBIGUATION_REQUIRED"
)

// Candidate pairs a matched menu item with the restaurant that serves it.
type Candidate struct {
	RestaurantID   string
	RestaurantName string
	Item           catalog.MenuItemRow
}

// Outcome is the resolver's verdict for one dish query.
type Outcome struct {
	Kind       string
	Match      Candidate
	Candidates []Candidate
}

// Resolve resolves a dish query in five steps:
// fuzzy-match across all restaurants → zero/one shortcuts → current
// restaurant bias → exact-name tiebreak → grouped disambiguation. The
// per-restaurant menu fetches run concurrently; a failing fetch skips
// that restaurant rather than failing the whole resolution.
func Resolve(ctx context.Context, repo catalog.Repository, restaurants []models.Restaurant, currentRestaurantID string, query string) Outcome {
	perRestaurant := make([][]Candidate, len(restaurants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, r := range restaurants {
		i, r := i, r
		g.Go(func() error {
			items, err := repo.GetMenu(gctx, r.ID, true)
			if err != nil {
				return nil
			}
			for _, item := range items {
				if lexicon.FuzzyIncludes(item.Name, query) {
					perRestaurant[i] = append(perRestaurant[i], Candidate{RestaurantID: r.ID, RestaurantName: r.Name, Item: item})
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []Candidate
	for _, cs := range perRestaurant {
		all = append(all, cs...)
	}

	if len(all) == 0 {
		return Outcome{Kind: ItemNotFound}
	}
	if len(all) == 1 {
		return Outcome{Kind: AddItem, Match: all[0]}
	}

	if currentRestaurantID != "" {
		var inContext []Candidate
		for _, c := range all {
			if c.RestaurantID == currentRestaurantID {
				inContext = append(inContext, c)
			}
		}
		if len(inContext) == 1 {
			return Outcome{Kind: AddItem, Match: inContext[0]}
		}
		if len(inContext) > 1 {
			// Several matches inside the selected restaurant: the rest of
			// the resolution only weighs those, not every restaurant again.
			all = inContext
		}
	}

	normQuery := lexicon.Normalize(query)
	var exact []Candidate
	for _, c := range all {
		if lexicon.Normalize(c.Item.Name) == normQuery {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return Outcome{Kind: AddItem, Match: exact[0]}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].RestaurantName < all[j].RestaurantName })
	return Outcome{Kind: DisambiguationRequired, Candidates: all}
}

var (
	sizeSmallRe = regexp.MustCompile(`\bmal[aey]\b`)
	sizeLargeRe = regexp.MustCompile(`\bduz[aey]\b`)
	withRe      = regexp.MustCompile(`\bz\s+([\p{L}\s,]+?)(?:$|[.,!?])`)
	withoutRe   = regexp.MustCompile(`\bbez\s+([\p{L}\s,]+?)(?:$|[.,!?])`)
)

// OrderDetails is the free-text order parser's output for one utterance
//.
type OrderDetails struct {
	Quantity int
	Size     string
	Extras   []string
}

// ParseOrderDetails extracts quantity, size and extras from a single
// utterance. Quantity defaults to 1 when absent.
func ParseOrderDetails(text string) OrderDetails {
	norm := lexicon.Normalize(text)

	qty, ok := lexicon.ParseQuantity(norm)
	if !ok {
		qty = 1
	}

	size := ""
	switch {
	case sizeLargeRe.MatchString(norm):
		size = "duża"
	case sizeSmallRe.MatchString(norm):
		size = "mała"
	}

	var extras []string
	if m := withRe.FindStringSubmatch(norm); len(m) == 2 {
		extras = append(extras, splitIngredients(m[1])...)
	}
	if m := withoutRe.FindStringSubmatch(norm); len(m) == 2 {
		for _, ing := range splitIngredients(m[1]) {
			extras = append(extras, "bez "+ing)
		}
	}

	return OrderDetails{Quantity: qty, Size: size, Extras: extras}
}

// conjunctionRe separates the item segments of a compound order ("dwa
// kebaby i cola, jedna zupa").
var conjunctionRe = regexp.MustCompile(`\s+(?:i|oraz|plus)\s+|\s*,\s*`)

// segmentStopwords are tokens that never belong to an item name: the
// ordering verbs and their politeness filler.
var segmentStopwords = map[string]bool{
	"wybieram": true, "poprosze": true, "prosze": true, "wezme": true,
	"dodaj": true, "zamawiam": true, "zamowic": true, "chce": true,
	"chcialbym": true, "chcialabym": true, "mi": true, "jeszcze": true,
}

var sizeTokens = map[string]bool{
	"mala": true, "male": true, "maly": true,
	"duza": true, "duze": true, "duzy": true,
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// ParseOrder splits an utterance into per-item segments on conjunctions and
// commas, extracting each segment's quantity/size/extras and isolating the
// item name. The result follows the parsedOrder entity shape: one group
// (restaurant binding happens later, during resolution), Any=true when at
// least one item was read.
func ParseOrder(text string) models.ParsedOrder {
	norm := lexicon.Normalize(text)
	group := models.OrderGroup{}
	for _, seg := range conjunctionRe.Split(norm, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		details := ParseOrderDetails(seg)
		name := itemName(seg)
		if name == "" {
			continue
		}
		group.Items = append(group.Items, models.OrderItemEntity{
			Name:   name,
			Qty:    details.Quantity,
			Size:   details.Size,
			Extras: details.Extras,
		})
	}
	if len(group.Items) == 0 {
		return models.ParsedOrder{}
	}
	return models.ParsedOrder{Any: true, Groups: []models.OrderGroup{group}}
}

// itemName strips extras spans, quantity words, size words and order verbs
// from a segment, leaving the dish phrase itself.
func itemName(seg string) string {
	s := withRe.ReplaceAllString(seg, " ")
	s = withoutRe.ReplaceAllString(s, " ")
	var kept []string
	for _, tok := range lexicon.Tokenize(s) {
		if digitsRe.MatchString(tok) {
			continue
		}
		if _, isCardinal := lexicon.CardinalValue(tok); isCardinal {
			continue
		}
		if sizeTokens[tok] || segmentStopwords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func splitIngredients(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
