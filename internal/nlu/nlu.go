// Package nlu implements C3: the deterministic tiered NLU router. Each tier
// may short-circuit; the first tier that matches wins.
package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/icm"
	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// Source names power downstream guards: the nav guard owns
// rule_guard upstream of this package; everything below is assigned here
// except icm_fallback, which the orchestrator's ICM gate assigns.
const (
	SourceContextLock     = "context_lock"
	SourceLexicalOverride = "lexical_override"
	SourceRegexV2         = "regex_v2"
	SourceClassicLegacy   = "classic_legacy"
	SourceLLMHybrid       = "llm_hybrid"
	SourceFallback        = "fallback"
	SourceICMFallback     = "icm_fallback"
	SourceLegacyBlocked   = "legacy_hard_blocked"
)

// Result is what the router hands the orchestrator for a turn.
type Result struct {
	Intent     string
	Domain     string
	Confidence float64
	Entities   models.Entities
	Source     string
}

var (
	confirmOrderNo  = regexp.MustCompile(`^nie\b`)
	confirmOrderYes = regexp.MustCompile(`tak|potwierdzam|zamawiam|ok|dobra|jasne|dawaj|pewnie`)

	orderVerbs   = regexp.MustCompile(`wybieram|poprosze|wezme|dodaj|zamawiam|chce`)
	orderVerbExc = regexp.MustCompile(`chce (cos|zjesc|gdzie)`)

	// addToCartRe detects the explicit "straight to the cart" phrasing
	// ("dodaj kebab do koszyka") that confirm_add_to_cart's single-step
	// flow exists for, distinct from the generic "dodaj" order verb above
	// which starts the two-step pendingOrder/confirm_order flow instead.
	addToCartRe = regexp.MustCompile(`do koszyka`)

	discoveryWords = regexp.MustCompile(`gdzie zjesc|szukam|polecisz|\b(pizzerie|restauracje|knajpy|bary|kebaby)\b|glodny`)
	locationRe     = regexp.MustCompile(`\bw\s+([\p{Lu}][\p{L}]*)`)
	cuisineSearch  = regexp.MustCompile(`szukam\s+(\S+)`)

	menuRequestRe = regexp.MustCompile(`\b(pokaz\s+)?(menu|kart[ae]|ofert[ae]|lista dan)\b`)
	newOrderRe    = regexp.MustCompile(`nowe zamowienie|od nowa|\bstart\b|resetuj`)

	dishWordRe = regexp.MustCompile(`\b(pizz[aey]|kebab\w*|burger\w*|sushi|zupe?\w*|makaron\w*|salat\w*|dani[ae]?)\b`)

	stopwords = map[string]bool{
		"czegos": true, "cos": true, "jakiegos": true,
		"restauracji": true, "restauracje": true, "pizzerii": true,
		"knajpy": true, "baru": true, "jedzenia": true, "miejsca": true,
	}
)

// Router runs the deterministic tiers against free text. The catalog and
// ICM map are collaborators injected by the orchestrator at boot.
type Router struct {
	Catalog    *catalog.Catalog
	ICM        icm.Map
	ExpertMode bool
	// LLMFallback is invoked only when ExpertMode is on and every
	// deterministic tier fell through to unknown. It is
	// nil in tests and in any deployment without an LLM wired in.
	LLMFallback func(text string) (Result, bool)
}

// New builds a Router with its required collaborators.
func New(cat *catalog.Catalog, icmMap icm.Map) *Router {
	return &Router{Catalog: cat, ICM: icmMap}
}

// Route resolves raw utterance text to an intent, applying the five tiers
// in order and then the hard-block demotion.
func (r *Router) Route(text string, expectedContext string) Result {
	norm := lexicon.Normalize(text)

	if res, ok := r.tierContextShortCircuit(norm, text, expectedContext); ok {
		return res
	}
	if res, ok := r.tierLexicalOverride(norm); ok {
		return res
	}
	if res, ok := r.tierRegexIntents(norm, text); ok {
		return res
	}
	if res, ok := r.tierCatalogMatch(norm); ok {
		return r.applyHardBlock(res)
	}
	if r.ExpertMode && r.LLMFallback != nil {
		if res, ok := r.LLMFallback(text); ok {
			res.Source = SourceLLMHybrid
			if res.Confidence > 0.75 {
				res.Confidence = 0.75
			}
			return res
		}
	}

	return Result{Intent: "unknown", Domain: "system", Confidence: 1, Source: SourceFallback}
}

func (r *Router) tierContextShortCircuit(norm, raw, expectedContext string) (Result, bool) {
	switch expectedContext {
	case "confirm_order":
		if confirmOrderNo.MatchString(norm) {
			return Result{Intent: "cancel_order", Domain: "ordering", Confidence: 1, Source: SourceContextLock}, true
		}
		if confirmOrderYes.MatchString(norm) {
			return Result{Intent: "confirm_order", Domain: "ordering", Confidence: 1, Source: SourceContextLock}, true
		}
	case "select_restaurant", "show_more_options", "choose_restaurant":
		return Result{
			Intent:     "select_restaurant",
			Domain:     "food",
			Confidence: 1,
			Entities:   models.Entities{Restaurant: raw},
			Source:     SourceContextLock,
		}, true
	case "confirm_menu":
		if confirmOrderYes.MatchString(norm) || menuRequestRe.MatchString(norm) {
			return Result{Intent: "menu_request", Domain: "food", Confidence: 1, Source: SourceContextLock}, true
		}
	case "find_nearby_ask_location":
		// The previous turn asked for a city; whatever comes back is the
		// location unless it reads like a fresh discovery phrase.
		if !discoveryWords.MatchString(norm) && !orderVerbs.MatchString(norm) {
			return Result{
				Intent:     "find_nearby",
				Domain:     "food",
				Confidence: 1,
				Entities:   models.Entities{Location: strings.TrimSpace(raw)},
				Source:     SourceContextLock,
			}, true
		}
	}
	return Result{}, false
}

func (r *Router) tierLexicalOverride(norm string) (Result, bool) {
	if orderVerbExc.MatchString(norm) {
		return Result{}, false
	}
	if addToCartRe.MatchString(norm) {
		ent := models.Entities{}
		if dish := dishWordRe.FindString(norm); dish != "" {
			ent.Dish = dish
		}
		return Result{Intent: "confirm_add_to_cart", Domain: "food", Confidence: 0.9, Entities: ent, Source: SourceLexicalOverride}, true
	}
	if orderVerbs.MatchString(norm) {
		ent := models.Entities{}
		if dish := dishWordRe.FindString(norm); dish != "" {
			ent.Dish = dish
		} else if rest := stripOrderPhrase(norm); rest != "" && !isBarePosition(rest) {
			// "poprosze margherita": the dish vocabulary doesn't know every
			// menu item name, so whatever remains after the order verb is
			// handed to disambiguation as the dish phrase.
			ent.Dish = rest
		}
		return Result{Intent: "create_order", Domain: "food", Confidence: 0.9, Entities: ent, Source: SourceLexicalOverride}, true
	}
	return Result{}, false
}

// orderPhraseStopwords are tokens that carry the ordering act itself, not
// the thing ordered; stripOrderPhrase drops them to isolate the dish phrase.
var orderPhraseStopwords = map[string]bool{
	"wybieram": true, "poprosze": true, "prosze": true, "wezme": true,
	"dodaj": true, "zamawiam": true, "zamowic": true, "chce": true,
	"chcialbym": true, "chcialabym": true, "mi": true, "o": true, "do": true,
	"jeszcze": true, "cos": true, "zjesc": true,
}

func stripOrderPhrase(norm string) string {
	var kept []string
	for _, tok := range lexicon.Tokenize(norm) {
		if orderPhraseStopwords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// isBarePosition reports whether rest is purely a list-position reference
// ("druga", "2") rather than a dish phrase; those are left to the deictic
// resolver, not treated as a dish name.
func isBarePosition(rest string) bool {
	toks := lexicon.Tokenize(rest)
	if len(toks) == 0 {
		return false
	}
	for _, tok := range toks {
		if _, err := strconv.Atoi(tok); err == nil {
			continue
		}
		if _, ok := lexicon.CardinalValue(tok); ok {
			continue
		}
		if _, ok := lexicon.ParseOrdinalPl(tok); ok {
			continue
		}
		return false
	}
	return true
}

// extractDish pulls the first recognized dish word out of normalized text,
// used by tiers that resolve to create_order so downstream disambiguation
// and the confirm_add_to_cart ICM condition ({entities.dish: 'any'}) have
// something to work with even before a menu lookup happens.
func extractDish(norm string) string {
	return dishWordRe.FindString(norm)
}

func (r *Router) tierRegexIntents(norm, raw string) (Result, bool) {
	if newOrderRe.MatchString(norm) {
		return Result{Intent: "new_order", Domain: "system", Confidence: 0.9, Source: SourceRegexV2}, true
	}
	if menuRequestRe.MatchString(norm) {
		return Result{Intent: "menu_request", Domain: "food", Confidence: 0.9, Source: SourceRegexV2}, true
	}
	if discoveryWords.MatchString(norm) {
		ent := models.Entities{}
		// Location is extracted from the raw text so the Proper Noun's
		// capitalization survives; norm is already lowercased.
		if m := locationRe.FindStringSubmatch(raw); len(m) == 2 {
			ent.Location = m[1]
		}
		if m := cuisineSearch.FindStringSubmatch(norm); len(m) == 2 && !stopwords[m[1]] {
			ent.Cuisine = m[1]
		}
		return Result{Intent: "find_nearby", Domain: "food", Confidence: 0.85, Entities: ent, Source: SourceRegexV2}, true
	}
	return Result{}, false
}

func (r *Router) tierCatalogMatch(norm string) (Result, bool) {
	if r.Catalog == nil {
		return Result{}, false
	}
	restaurant, ok := r.Catalog.FindByText(norm)
	if !ok {
		return Result{}, false
	}

	ent := models.Entities{Restaurant: restaurant.ID}
	if dish := extractDish(norm); dish != "" {
		ent.Dish = dish
		return Result{Intent: "create_order", Domain: "food", Confidence: 0.7, Entities: ent, Source: SourceClassicLegacy}, true
	}
	return Result{Intent: "select_restaurant", Domain: "food", Confidence: 0.7, Entities: ent, Source: SourceClassicLegacy}, true
}

// applyHardBlock demotes a classic_legacy-sourced intent to its ICM
// fallback when HardBlockLegacy is set.
func (r *Router) applyHardBlock(res Result) Result {
	if res.Source != SourceClassicLegacy && !strings.HasSuffix(res.Source, "_blocked") {
		return res
	}
	entry := r.ICM.Get(res.Intent)
	if !entry.HardBlockLegacy {
		return res
	}
	return Result{
		Intent:     entry.FallbackIntent,
		Domain:     r.ICM.Get(entry.FallbackIntent).Domain,
		Confidence: res.Confidence,
		Entities:   res.Entities,
		Source:     SourceLegacyBlocked,
	}
}
