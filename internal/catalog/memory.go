package catalog

import (
	"context"
	"strings"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-process fake satisfying Repository, used by
// tests and by the CLI smoke client when no database is configured.
type MemoryRepository struct {
	Restaurants []RestaurantRow
	Menus       map[string][]MenuItemRow
}

func NewMemoryRepository(restaurants []RestaurantRow, menus map[string][]MenuItemRow) *MemoryRepository {
	return &MemoryRepository{Restaurants: restaurants, Menus: menus}
}

func (m *MemoryRepository) SearchRestaurants(_ context.Context, city string, cuisines []string) ([]RestaurantRow, error) {
	normCity := lexicon.Normalize(city)
	cuisineSet := map[string]bool{}
	for _, c := range cuisines {
		cuisineSet[lexicon.Normalize(c)] = true
	}

	var out []RestaurantRow
	for _, r := range m.Restaurants {
		if normCity != "" && !strings.Contains(lexicon.Normalize(r.City), normCity) {
			continue
		}
		if len(cuisineSet) > 0 && !cuisineSet[lexicon.Normalize(r.Cuisine)] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MemoryRepository) GetMenu(_ context.Context, restaurantID string, availableOnly bool) ([]MenuItemRow, error) {
	items := m.Menus[restaurantID]
	if !availableOnly {
		return items, nil
	}
	var out []MenuItemRow
	for _, item := range items {
		if item.Available {
			out = append(out, item)
		}
	}
	return out, nil
}
