package food

import (
	"fmt"
	"strings"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

var bannedNameTokens = []string{"butelka", "opakowanie"}

// MenuHandler returns the restaurant's menu, reusing the cached shortlist
// on a repeated generic menu_request (anti-loop) and otherwise fetching
// and filtering it.
func MenuHandler(deps Deps, t Turn) DomainResult {
	if t.CurrentRestaurant == nil {
		return DomainResult{
			Reply:          "Najpierw wybierz restaurację.",
			Intent:         "menu_request",
			NeedsLocation:  true,
			ContextUpdates: map[string]any{},
		}
	}

	if len(t.LastMenu) > 0 && t.Entities.Dish == "" && len(t.Entities.Items) == 0 {
		return DomainResult{
			Intent:         "menu_request",
			Reply:          menuReply(t.CurrentRestaurant.Name, t.LastMenu),
			MenuItems:      t.LastMenu,
			ContextUpdates: map[string]any{"expectedContext": "menu_or_order"},
		}
	}

	rows, err := deps.Repo.GetMenu(t.Ctx, t.CurrentRestaurant.ID, true)
	if err != nil {
		return DomainResult{Reply: "Nie udało się pobrać menu.", Intent: "menu_request"}
	}

	var views []models.MenuItemView
	for _, r := range rows {
		if bannedMenuCategories[lexicon.Normalize(r.Category)] {
			continue
		}
		if hasBannedToken(r.Name) {
			continue
		}
		views = append(views, models.MenuItemView{ID: r.ID, Name: r.Name, PricePLN: r.PriceFloat(), Category: r.Category})
		if len(views) == 6 {
			break
		}
	}

	if len(views) == 0 {
		return DomainResult{
			Reply:  fmt.Sprintf("Nie mam teraz dostępnego menu dla %s.", t.CurrentRestaurant.Name),
			Intent: "menu_request",
		}
	}

	return DomainResult{
		Intent:         "menu_request",
		Reply:          menuReply(t.CurrentRestaurant.Name, views),
		MenuItems:      views,
		ContextUpdates: map[string]any{"expectedContext": "menu_or_order", "last_menu": views},
	}
}

// menuReply lists the shortlist in one line; the UI renders the structured
// menuItems itself, so TTS only reads the first sentence.
func menuReply(restaurantName string, items []models.MenuItemView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Oto menu %s: ", restaurantName)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d. %s (%.2f zł)", i+1, it.Name, it.PricePLN)
	}
	b.WriteString(". Co podać?")
	return b.String()
}

func hasBannedToken(name string) bool {
	norm := lexicon.Normalize(name)
	for _, tok := range bannedNameTokens {
		if strings.Contains(norm, tok) {
			return true
		}
	}
	return false
}
