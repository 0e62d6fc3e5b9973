package food

import (
	"fmt"

	"github.com/ndoemo/dialogbrain/internal/models"
)

// RecommendHandler surfaces up to three open restaurants, restricted to the
// city named in this turn's location entity when there is one. The
// session's last searched city is not consulted. It reuses the static
// catalog so a recommendation never needs a repository round-trip.
func RecommendHandler(deps Deps, t Turn) DomainResult {
	city := ""
	if t.Entities.Location != "" {
		city = t.Entities.Location
	}

	var views []models.RestaurantView
	for _, r := range deps.Catalog.All() {
		if !r.IsOpen {
			continue
		}
		if city != "" && r.City != city {
			continue
		}
		views = append(views, models.RestaurantView{
			ID: r.ID, Name: r.Name, City: r.City, CuisineType: r.Cuisine,
			Lat: r.Lat, Lng: r.Lng, Index: len(views) + 1,
		})
		if len(views) == 3 {
			break
		}
	}

	if len(views) == 0 {
		return DomainResult{Reply: "Nie mam teraz nic do polecenia.", Intent: "recommend"}
	}

	return DomainResult{
		Intent:      "recommend",
		Reply:       fmt.Sprintf("Polecam %s w %s.", views[0].Name, views[0].City),
		Restaurants: views,
		ContextUpdates: map[string]any{
			"last_restaurants_list": views,
			"expectedContext":       "select_restaurant",
		},
	}
}

// ChooseRestaurantHandler re-surfaces the candidates an ambiguous order
// left on the table and re-arms the selection expectation, carrying the
// remembered dish through the sub-dialog.
func ChooseRestaurantHandler(deps Deps, t Turn) DomainResult {
	if len(t.LastRestaurantsList) == 0 {
		return DomainResult{Reply: "Nie mam listy restauracji do wyboru.", Intent: "choose_restaurant"}
	}
	return DomainResult{
		Intent:             "choose_restaurant",
		Restaurants:        t.LastRestaurantsList,
		NeedsClarification: true,
		ContextUpdates: map[string]any{
			"expectedContext": "choose_restaurant",
			"pendingDish":     t.PendingDish,
		},
	}
}
