package food

import (
	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// SelectRestaurantHandler resolves a positional reference — a digit, a
// Polish ordinal, or a fuzzy name — against the last shown restaurant list
//.
func SelectRestaurantHandler(deps Deps, t Turn) DomainResult {
	if len(t.LastRestaurantsList) == 0 {
		return DomainResult{Reply: "Nie mam listy restauracji do wyboru.", Intent: "select_restaurant"}
	}

	query := t.Entities.Restaurant
	if query == "" {
		query = t.Text
	}

	var chosen *models.RestaurantView
	if pos, ok := lexicon.ParseListPosition(query); ok {
		for i := range t.LastRestaurantsList {
			if t.LastRestaurantsList[i].Index == pos {
				chosen = &t.LastRestaurantsList[i]
				break
			}
		}
	}
	if chosen == nil {
		for i := range t.LastRestaurantsList {
			if lexicon.FuzzyIncludes(t.LastRestaurantsList[i].Name, query) {
				chosen = &t.LastRestaurantsList[i]
				break
			}
		}
	}

	if chosen == nil {
		return DomainResult{Reply: "Nie rozpoznałam, którą restaurację wybierasz.", Intent: "select_restaurant"}
	}

	updates := map[string]any{
		"currentRestaurant":  &models.RestaurantRef{ID: chosen.ID, Name: chosen.Name, City: chosen.City},
		"lockedRestaurantId": chosen.ID,
		"pendingDish":        "",
		"expectedContext":    "menu_or_order",
	}

	result := DomainResult{
		Intent:         "select_restaurant",
		Reply:          "Wybrano " + chosen.Name + ". Co podać?",
		ContextUpdates: updates,
	}

	if t.PendingDish != "" {
		result.Actions = append(result.Actions, models.Action{
			Type: "create_order",
			Payload: map[string]any{
				"restaurant": map[string]any{"id": chosen.ID},
				"items": []map[string]any{
					{"name": t.PendingDish, "quantity": 1},
				},
			},
		})
	}

	return result
}
