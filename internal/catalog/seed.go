package catalog

import "github.com/ndoemo/dialogbrain/internal/models"

// Seed returns the static restaurant list that cmd/dialogcli and cmd/dialogd
// build the in-memory catalog index from; cmd/dialogd uses it whether or
// not it runs with -memory-repo.
func Seed() []models.Restaurant {
	return []models.Restaurant{
		{
			ID: "rest_pizzeria_roma", Name: "Pizzeria Roma", City: "Bytom", Cuisine: "pizza",
			Aliases: []string{"Roma"}, Lat: 50.3484, Lng: 18.9166, IsOpen: true, MinOrderPLN: 25,
		},
		{
			ID: "rest_bar_praha", Name: "Bar Praha", City: "Bytom", Cuisine: "kebab",
			Lat: 50.3490, Lng: 18.9120, IsOpen: true, MinOrderPLN: 15,
		},
		{
			ID: "rest_sushi_zen", Name: "Sushi Zen", City: "Bytom", Cuisine: "sushi",
			Lat: 50.3501, Lng: 18.9203, IsOpen: true, MinOrderPLN: 40,
		},
		{
			ID: "rest_makaroniarnia", Name: "Makaroniarnia u Stefana", City: "Katowice", Cuisine: "makaron",
			Aliases: []string{"u Stefana"}, Lat: 50.2649, Lng: 19.0238, IsOpen: true, MinOrderPLN: 20,
		},
		{
			ID: "rest_zupa_i_kasza", Name: "Zupa i Kasza", City: "Katowice", Cuisine: "zupa",
			Lat: 50.2600, Lng: 19.0150, IsOpen: false, MinOrderPLN: 10,
		},
		{
			ID: "rest_burger_king_bytom", Name: "Bar Burgerowy Centrum", City: "Bytom", Cuisine: "burger",
			Lat: 50.3477, Lng: 18.9144, IsOpen: true, MinOrderPLN: 18,
		},
	}
}

// SeedMenus returns the menu rows keyed by restaurant id, aligned with
// Seed's restaurant ids, for building a MemoryRepository in tests and in
// the CLI smoke client.
func SeedMenus() map[string][]MenuItemRow {
	return map[string][]MenuItemRow{
		"rest_pizzeria_roma": {
			{ID: "mi_margherita", RestaurantID: "rest_pizzeria_roma", Name: "Pizza Margherita", PriceCents: 2500, Category: "pizza", Available: true},
			{ID: "mi_capricciosa", RestaurantID: "rest_pizzeria_roma", Name: "Pizza Capricciosa", PriceCents: 2900, Category: "pizza", Available: true},
			{ID: "mi_pizza_mala", RestaurantID: "rest_pizzeria_roma", Name: "Pizza Margherita mała", PriceCents: 1900, Category: "pizza", Size: "mała", Available: true},
		},
		"rest_bar_praha": {
			{ID: "mi_kebab_duzy", RestaurantID: "rest_bar_praha", Name: "Kebab duży", PriceCents: 2200, Category: "kebab", Size: "duża", Available: true},
			{ID: "mi_kebab_maly", RestaurantID: "rest_bar_praha", Name: "Kebab mały", PriceCents: 1600, Category: "kebab", Size: "mała", Available: true},
		},
		"rest_sushi_zen": {
			{ID: "mi_sushi_mix", RestaurantID: "rest_sushi_zen", Name: "Sushi Zestaw Mix", PriceCents: 4500, Category: "sushi", Available: true},
		},
		"rest_makaroniarnia": {
			{ID: "mi_makaron_carbonara", RestaurantID: "rest_makaroniarnia", Name: "Makaron Carbonara", PriceCents: 2300, Category: "makaron", Available: true},
		},
		"rest_zupa_i_kasza": {
			{ID: "mi_zupa_pomidorowa", RestaurantID: "rest_zupa_i_kasza", Name: "Zupa pomidorowa", PriceCents: 1200, Category: "zupa", Available: false},
		},
		"rest_burger_king_bytom": {
			{ID: "mi_burger_klasyczny", RestaurantID: "rest_burger_king_bytom", Name: "Burger klasyczny", PriceCents: 2100, Category: "burger", Available: true},
		},
	}
}

// SeedRows mirrors Seed's restaurants in the Repository-facing RestaurantRow
// shape, for building a MemoryRepository without a database.
func SeedRows() []RestaurantRow {
	restaurants := Seed()
	rows := make([]RestaurantRow, 0, len(restaurants))
	for _, r := range restaurants {
		rows = append(rows, RestaurantRow{
			ID: r.ID, Name: r.Name, City: r.City, Cuisine: r.Cuisine,
			Lat: r.Lat, Lng: r.Lng, IsOpen: r.IsOpen, MinOrderPLN: r.MinOrderPLN,
		})
	}
	return rows
}
