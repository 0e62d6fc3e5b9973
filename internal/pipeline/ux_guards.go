package pipeline

import (
	"strings"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/session"
)

var (
	showVerbRe   = []string{"pokaz", "pokarz", "pokaze"}
	changeVerbRe = []string{"zmien", "zmiana", "inna restauracja"}
)

// applyUXGuards applies a small set of corrective
// rewrites that run after the ICM gate but before dispatch. They only ever
// redirect an already-accepted intent to a more useful sibling; they never
// resurrect an intent the ICM gate or cart-mutation guard just blocked.
func (p *Pipeline) applyUXGuards(sess *session.Session, text, intent string, entities models.Entities) string {
	norm := lexicon.Normalize(text)

	// Menu-scoped ordering: once a restaurant's menu is on the table,
	// "poprosze pizze" after a find_nearby catch-all resolves against the
	// restaurant already in focus rather than restarting discovery.
	if intent == "find_nearby" && sess.CurrentRestaurant != nil &&
		(sess.LastIntent == "menu_request" || sess.ExpectedContext == "restaurant_menu" || sess.ExpectedContext == "continue_order") {
		intent = "create_order"
	}

	// Fuzzy restaurant confirmation: the text names something close to, but
	// not exactly, the restaurant already in focus — ask before switching
	// instead of silently assuming a typo resolved to the same place.
	if sess.CurrentRestaurant != nil && entities.Restaurant != "" && entities.Restaurant != sess.CurrentRestaurant.ID {
		if fuzzyNameCollision(sess.CurrentRestaurant.Name, norm) {
			sess.ExpectedContext = "confirm_restaurant"
			return "confirm_restaurant"
		}
	}

	// Auto-menu: a select_restaurant turn phrased as "show me X" (rather
	// than "switch to X") is really asking for that restaurant's menu.
	if intent == "select_restaurant" && containsAny(norm, showVerbRe) && !containsAny(norm, changeVerbRe) {
		intent = "menu_request"
	}

	// Empty-order guard: "chce zamowic" with no dish/items named yet isn't
	// enough to start an order — fall back to showing the menu so the user
	// can pick something.
	if intent == "create_order" && entities.Dish == "" && len(entities.Items) == 0 && sess.PendingDish == "" {
		intent = "menu_request"
	}

	return intent
}

func containsAny(norm string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(norm, n) {
			return true
		}
	}
	return false
}

// fuzzyNameCollision reports whether norm text plausibly names a
// restaurant similar to, but distinct from, currentName: either the first
// four folded characters match, or both names share a five-character
// mutual prefix once tokenized.
func fuzzyNameCollision(currentName, norm string) bool {
	currentNorm := lexicon.Normalize(currentName)
	if lexicon.FuzzyIncludes(norm, currentName) {
		return false // same restaurant, not a near-miss
	}
	tokens := lexicon.Tokenize(norm)
	nameTokens := lexicon.Tokenize(currentNorm)
	for _, t := range tokens {
		if prefixCollision(t, currentNorm) {
			return true
		}
		for _, nt := range nameTokens {
			if len(t) >= 5 && len(nt) >= 5 && t[:5] == nt[:5] {
				return true
			}
		}
	}
	return false
}

func prefixCollision(a, b string) bool {
	const n = 4
	if len(a) < n || len(b) < n {
		return false
	}
	return a[:n] == b[:n]
}
