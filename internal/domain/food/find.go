package food

import (
	"fmt"
	"math"
	"sort"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// FindRestaurantHandler resolves a location/cuisine query to a shortlist of
// restaurants. Generic queries return up to 3; cuisine-specific
// queries return up to 10.
func FindRestaurantHandler(deps Deps, t Turn) DomainResult {
	city := t.Entities.Location
	cuisines := cuisinesFor(t.Entities.Cuisine)

	if city == "" && (t.Lat == nil || t.Lng == nil) {
		// Nothing to anchor the search on: ask for a city and arm the
		// next turn to read the answer as a location.
		return DomainResult{
			Intent:        "find_nearby",
			NeedsLocation: true,
			ContextUpdates: map[string]any{
				"awaiting":        "location",
				"expectedContext": "find_nearby_ask_location",
			},
		}
	}

	rows, err := searchWithNearbyCache(deps, t, city, cuisines)
	nearbyFallback := false
	if err == nil && len(rows) == 0 && city != "" {
		// No hit for the named city: fall back to a citywide-unfiltered
		// suggestion set rather than reporting a dead end.
		rows, err = deps.Repo.SearchRestaurants(t.Ctx, "", cuisines)
		nearbyFallback = true
	}
	if err != nil {
		return DomainResult{Reply: "Nie udało się wyszukać restauracji.", Intent: "find_nearby"}
	}

	limit := 3
	if len(cuisines) > 0 {
		limit = 10
	}

	views := toViews(rows, t.Lat, t.Lng)
	sortByDistance(views)
	if len(views) > limit {
		views = views[:limit]
	}
	for i := range views {
		views[i].Index = i + 1
	}

	updates := map[string]any{"last_restaurants_list": views, "awaiting": ""}
	if city != "" {
		updates["last_location"] = city
	}
	if t.Entities.Cuisine != "" {
		updates["lastCuisineType"] = t.Entities.Cuisine
	}
	reply := ""
	switch len(views) {
	case 0:
		return DomainResult{
			Reply:          "Nie znalazłam żadnej pasującej restauracji.",
			Intent:         "find_nearby",
			ContextUpdates: updates,
		}
	case 1:
		updates["expectedContext"] = "confirm_menu"
		updates["currentRestaurant"] = &models.RestaurantRef{ID: views[0].ID, Name: views[0].Name, City: views[0].City}
		reply = fmt.Sprintf("Znalazłam %s w %s. Pokazać menu?", views[0].Name, views[0].City)
	default:
		updates["expectedContext"] = "select_restaurant"
	}

	meta := map[string]any{}
	if nearbyFallback {
		meta["nearbyFallback"] = true
	}

	return DomainResult{
		Intent:         "find_nearby",
		Reply:          reply,
		Restaurants:    views,
		ContextUpdates: updates,
		Meta:           meta,
	}
}

// searchWithNearbyCache serves a coordinates-only query out of the shared
// tile cache when a recent identical-tile lookup exists, otherwise asks the
// repository and fills the tile.
func searchWithNearbyCache(deps Deps, t Turn, city string, cuisines []string) ([]catalog.RestaurantRow, error) {
	cacheable := city == "" && len(cuisines) == 0 && t.Lat != nil && t.Lng != nil && deps.NearbyCache != nil
	if cacheable {
		if rows, ok := deps.NearbyCache.Get(*t.Lat, *t.Lng); ok {
			return rows, nil
		}
	}
	rows, err := deps.Repo.SearchRestaurants(t.Ctx, city, cuisines)
	if err == nil && cacheable {
		deps.NearbyCache.Set(*t.Lat, *t.Lng, rows)
	}
	return rows, err
}

func cuisinesFor(phrase string) []string {
	if phrase == "" {
		return nil
	}
	return lexicon.ExpandCuisine(phrase)
}

func toViews(rows []catalog.RestaurantRow, lat, lng *float64) []models.RestaurantView {
	views := make([]models.RestaurantView, 0, len(rows))
	for _, r := range rows {
		v := models.RestaurantView{ID: r.ID, Name: r.Name, City: r.City, CuisineType: r.Cuisine, Lat: r.Lat, Lng: r.Lng}
		if lat != nil && lng != nil {
			d := approxDistanceMeters(*lat, *lng, r.Lat, r.Lng)
			v.Distance = &d
		}
		views = append(views, v)
	}
	return views
}

func sortByDistance(views []models.RestaurantView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Distance == nil || views[j].Distance == nil {
			return false
		}
		return *views[i].Distance < *views[j].Distance
	})
}

// approxDistanceMeters is an equirectangular approximation, consistent
// with the tile math used by NearbyCache — adequate at city scale without
// pulling in a full geodesy dependency.
func approxDistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const metersPerDegree = 111_000.0
	dLat := (lat2 - lat1) * metersPerDegree
	dLng := (lng2 - lng1) * metersPerDegree * math.Cos(lat1*math.Pi/180.0)
	return math.Hypot(dLat, dLng)
}
