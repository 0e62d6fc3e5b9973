// Package render implements C11: the Surface Renderer. render.Render is a
// pure function — deterministic, no network calls — mapping a surface key
// plus structured facts to a Polish reply and UI hints.
package render

import (
	"fmt"
	"strings"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// Surface keys.
const (
	AskLocation          = "ASK_LOCATION"
	ChooseRestaurant     = "CHOOSE_RESTAURANT"
	AskRestaurantForMenu = "ASK_RESTAURANT_FOR_MENU"
	AskRestaurantForOrder = "ASK_RESTAURANT_FOR_ORDER"
	ItemNotFound         = "ITEM_NOT_FOUND"
	ClarifyItems         = "CLARIFY_ITEMS"
	ConfirmAdd           = "CONFIRM_ADD"
	ErrorGeneric         = "ERROR"
)

// Facts bundles the structured inputs a surface template draws from. Only
// the fields a given surface key reads need to be populated.
type Facts struct {
	City           string
	Dish           string
	Restaurants    []models.RestaurantView
	UnknownItem    string
	CurrentRestaurant string
	ClarifyBases   []ClarifyBase
	Items          []string
	Total          string
}

// ClarifyBase is one dish-name group shown by CLARIFY_ITEMS, with its sized
// or priced variants.
type ClarifyBase struct {
	Name     string
	Variants []ClarifyVariant
}

type ClarifyVariant struct {
	Label string
	Price float64
}

// Result is what Render returns: the Polish reply text plus UI hints for
// the transport layer (e.g. which restaurant ids were listed, for deictic
// follow-ups).
type Result struct {
	Reply   string
	UIHints map[string]any
}

// Render maps (surfaceKey, facts) to a reply; unknown keys fall back to the
// generic apology.
func Render(key string, facts Facts) Result {
	switch key {
	case AskLocation:
		return renderAskLocation(facts)
	case ChooseRestaurant:
		return renderChooseRestaurant(facts)
	case AskRestaurantForMenu:
		return renderAskRestaurantFor(facts, "menu")
	case AskRestaurantForOrder:
		return renderAskRestaurantFor(facts, "order")
	case ItemNotFound:
		return renderItemNotFound(facts)
	case ClarifyItems:
		return renderClarifyItems(facts)
	case ConfirmAdd:
		return renderConfirmAdd(facts)
	default:
		return Result{Reply: "Przepraszam, coś poszło nie tak. Spróbujmy jeszcze raz."}
	}
}

func renderAskLocation(f Facts) Result {
	base := "Brak miasta – powiedz mi miasto (np. Bytom) lub 'w pobliżu'."
	if f.Dish != "" {
		base = fmt.Sprintf("Brak miasta – powiedz mi miasto (np. Bytom) lub 'w pobliżu', żebym znalazła %s.", f.Dish)
	}
	return Result{Reply: base}
}

func renderChooseRestaurant(f Facts) Result {
	var b strings.Builder
	city := f.City
	if city == "" {
		city = "okolicy"
	}
	fmt.Fprintf(&b, "W %s mam %d %s: ", city, len(f.Restaurants), placeWord(len(f.Restaurants)))
	writeNumberedNames(&b, f.Restaurants)
	b.WriteString(". Którą wybierasz?")
	return Result{Reply: b.String(), UIHints: hintsFromList(f.Restaurants)}
}

func renderAskRestaurantFor(f Facts, purpose string) Result {
	var b strings.Builder
	if f.Dish != "" {
		fmt.Fprintf(&b, "Z której restauracji mam zamówić %s? ", f.Dish)
	} else if purpose == "menu" {
		b.WriteString("Którego menu mam ci pokazać? ")
	} else {
		b.WriteString("Z której restauracji zamawiasz? ")
	}
	writeNumberedNames(&b, f.Restaurants)
	b.WriteString(".")
	return Result{Reply: b.String(), UIHints: hintsFromList(f.Restaurants)}
}

func renderItemNotFound(f Facts) Result {
	if f.CurrentRestaurant != "" {
		return Result{Reply: fmt.Sprintf("Nie znalazłam „%s” w menu %s. Spróbuj inaczej.", f.UnknownItem, f.CurrentRestaurant)}
	}
	return Result{Reply: fmt.Sprintf("Nie znalazłam pozycji „%s”. Spróbuj inaczej.", f.UnknownItem)}
}

func renderClarifyItems(f Facts) Result {
	var b strings.Builder
	for i, base := range f.ClarifyBases {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s: ", base.Name)
		for j, v := range base.Variants {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%.2f zł)", v.Label, v.Price)
		}
		b.WriteString(".")
	}
	return Result{Reply: b.String()}
}

func renderConfirmAdd(f Facts) Result {
	items := strings.Join(f.Items, ", ")
	return Result{Reply: fmt.Sprintf("Dodałam %s. Razem %s zł. Potwierdzasz? (tak/nie)", items, f.Total)}
}

func writeNumberedNames(b *strings.Builder, restaurants []models.RestaurantView) {
	for i, r := range restaurants {
		if i > 0 {
			b.WriteString(", ")
		}
		idx := r.Index
		if idx == 0 {
			idx = i + 1
		}
		fmt.Fprintf(b, "%d. %s", idx, r.Name)
	}
}

func hintsFromList(restaurants []models.RestaurantView) map[string]any {
	ids := make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		ids = append(ids, r.ID)
	}
	return map[string]any{"restaurant_ids": ids}
}

func placeWord(n int) string {
	return lexicon.PluralPl(n, lexicon.PluralForms{One: "miejsce", Few: "miejsca", Other: "miejsc"})
}

// DetectSurface maps a handler's structured flags to a surface key, or
// returns ("", false) when the handler's own reply should stand unmodified
//.
func DetectSurface(needsClarification, needsLocation bool, unknownItems []string, clarifyBaseCount, restaurantCount int, expectedContext string) (string, bool) {
	switch {
	case needsLocation:
		return AskLocation, true
	case len(unknownItems) > 0:
		return ItemNotFound, true
	case clarifyBaseCount > 0:
		return ClarifyItems, true
	case needsClarification:
		return AskRestaurantForOrder, true
	case restaurantCount > 1 && expectedContext == "select_restaurant":
		return ChooseRestaurant, true
	default:
		return "", false
	}
}
