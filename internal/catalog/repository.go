package catalog

import "context"

// Repository is the storage collaborator contract: a swappable,
// out-of-core-scope store for restaurants and menus.
type Repository interface {
	// SearchRestaurants does a case-insensitive substring match on city,
	// with cuisine matched `eq` (single value) or `in` (expanded alias
	// group, see lexicon.ExpandCuisine) when non-empty.
	SearchRestaurants(ctx context.Context, city string, cuisines []string) ([]RestaurantRow, error)
	// GetMenu returns a restaurant's menu, optionally filtered to
	// available-only items.
	GetMenu(ctx context.Context, restaurantID string, availableOnly bool) ([]MenuItemRow, error)
}

// RestaurantRow and MenuItemRow mirror the DB-facing shapes; kept distinct
// from internal/models so the repository boundary doesn't leak
// pipeline-internal fields.
type RestaurantRow struct {
	ID          string
	Name        string
	City        string
	Cuisine     string
	Lat         float64
	Lng         float64
	IsOpen      bool
	MinOrderPLN float64
}

type MenuItemRow struct {
	ID           string
	RestaurantID string
	Name         string
	PriceCents   int64
	Category     string
	Available    bool
	Size         string
	Extras       []string
}

// PriceFloat converts the stored integer cents to a float PLN value.
func (m MenuItemRow) PriceFloat() float64 {
	return float64(m.PriceCents) / 100.0
}
