package food

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/models"
)

func orderFixture() Deps {
	restaurants := []models.Restaurant{
		{ID: "r1", Name: "Pizzeria Roma", City: "Bytom", IsOpen: true},
		{ID: "r2", Name: "Bar Praha", City: "Bytom", IsOpen: true},
	}
	menus := map[string][]catalog.MenuItemRow{
		"r1": {
			{ID: "m1", RestaurantID: "r1", Name: "Pizza Margherita", PriceCents: 2500, Category: "pizza", Available: true},
			{ID: "m2", RestaurantID: "r1", Name: "Zupa pomidorowa", PriceCents: 1200, Category: "zupa", Available: true},
		},
		"r2": {
			{ID: "m3", RestaurantID: "r2", Name: "Kebab duży", PriceCents: 2200, Category: "kebab", Size: "duży", Available: true},
			{ID: "m4", RestaurantID: "r2", Name: "Kebab mały", PriceCents: 1600, Category: "kebab", Size: "mały", Available: true},
		},
	}
	return Deps{
		Catalog: catalog.Build(restaurants),
		Repo:    catalog.NewMemoryRepository(nil, menus),
	}
}

func TestOrderHandlerBuildsPendingOrderWithQuantity(t *testing.T) {
	deps := orderFixture()
	turn := Turn{
		Ctx:               context.Background(),
		Text:              "poproszę dwa margherita",
		Entities:          models.Entities{Dish: "margherita"},
		CurrentRestaurant: &models.RestaurantRef{ID: "r1", Name: "Pizzeria Roma"},
	}

	result := OrderHandler(deps, turn)

	assert.Equal(t, "create_order", result.Intent)
	pending, ok := result.ContextUpdates["pendingOrder"].(*models.PendingOrder)
	require.True(t, ok)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, 2, pending.Items[0].Qty)
	assert.Equal(t, "50.00", pending.Total)
	assert.Equal(t, "confirm_order", result.ContextUpdates["expectedContext"])
	assert.Contains(t, result.Reply, "Potwierdzasz?")
}

func TestOrderHandlerMultiItemUtterance(t *testing.T) {
	deps := orderFixture()
	turn := Turn{
		Ctx:               context.Background(),
		Text:              "zamawiam margherita i zupa pomidorowa",
		CurrentRestaurant: &models.RestaurantRef{ID: "r1", Name: "Pizzeria Roma"},
	}

	result := OrderHandler(deps, turn)

	pending, ok := result.ContextUpdates["pendingOrder"].(*models.PendingOrder)
	require.True(t, ok)
	require.Len(t, pending.Items, 2)
	assert.Equal(t, "r1", pending.RestaurantID)
	assert.Equal(t, "37.00", pending.Total)
	assert.Contains(t, result.Reply, "Pizza Margherita")
	assert.Contains(t, result.Reply, "Zupa pomidorowa")
}

func TestOrderHandlerRejectsExcessiveQuantity(t *testing.T) {
	deps := orderFixture()
	turn := Turn{
		Ctx:               context.Background(),
		Text:              "poproszę 60 margherita",
		Entities:          models.Entities{Dish: "margherita"},
		CurrentRestaurant: &models.RestaurantRef{ID: "r1", Name: "Pizzeria Roma"},
	}

	result := OrderHandler(deps, turn)

	assert.Nil(t, result.ContextUpdates["pendingOrder"])
	assert.Contains(t, result.Reply, "50")
}

func TestOrderHandlerDisambiguationPersistsCandidateList(t *testing.T) {
	menus := map[string][]catalog.MenuItemRow{
		"r1": {{ID: "m1", RestaurantID: "r1", Name: "Pizza Margherita", PriceCents: 2500, Available: true}},
		"r2": {{ID: "m5", RestaurantID: "r2", Name: "Pizza Margherita", PriceCents: 2400, Available: true}},
	}
	deps := Deps{
		Catalog: catalog.Build([]models.Restaurant{
			{ID: "r1", Name: "Pizzeria Roma"},
			{ID: "r2", Name: "Bar Praha"},
		}),
		Repo: catalog.NewMemoryRepository(nil, menus),
	}
	turn := Turn{Ctx: context.Background(), Text: "zamawiam pizza margherita", Entities: models.Entities{Dish: "pizza margherita"}}

	result := OrderHandler(deps, turn)

	assert.True(t, result.NeedsClarification)
	assert.Nil(t, result.ContextUpdates["pendingOrder"])
	assert.Equal(t, "choose_restaurant", result.ContextUpdates["expectedContext"])
	assert.Equal(t, "pizza margherita", result.ContextUpdates["pendingDish"])

	views, ok := result.ContextUpdates["last_restaurants_list"].([]models.RestaurantView)
	require.True(t, ok)
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Index)
	assert.Equal(t, 2, views[1].Index)
}

func TestOrderHandlerClarifiesSizedVariantsWithinRestaurant(t *testing.T) {
	deps := orderFixture()
	turn := Turn{
		Ctx:               context.Background(),
		Text:              "poproszę kebab",
		Entities:          models.Entities{Dish: "kebab"},
		CurrentRestaurant: &models.RestaurantRef{ID: "r2", Name: "Bar Praha"},
	}

	result := OrderHandler(deps, turn)

	assert.False(t, result.NeedsClarification)
	require.Len(t, result.ClarifyBases, 1)
	assert.Equal(t, "Kebab", result.ClarifyBases[0].Name)
	assert.Len(t, result.ClarifyBases[0].Variants, 2)
	assert.Equal(t, "kebab", result.ContextUpdates["pendingDish"])
}

func TestOrderHandlerAutoSwitchWarnsAboutRestaurantChange(t *testing.T) {
	deps := orderFixture()
	turn := Turn{
		Ctx:               context.Background(),
		Text:              "poproszę zupa pomidorowa",
		Entities:          models.Entities{Dish: "zupa pomidorowa"},
		CurrentRestaurant: &models.RestaurantRef{ID: "r2", Name: "Bar Praha"},
	}

	result := OrderHandler(deps, turn)

	assert.Contains(t, result.Reply, "Zmieniam restaurację na Pizzeria Roma")
	pending, ok := result.ContextUpdates["pendingOrder"].(*models.PendingOrder)
	require.True(t, ok)
	assert.Equal(t, "r1", pending.RestaurantID)
}

func TestOrderHandlerUnknownItem(t *testing.T) {
	deps := orderFixture()
	turn := Turn{Ctx: context.Background(), Text: "zamawiam sushi", Entities: models.Entities{Dish: "sushi"}}

	result := OrderHandler(deps, turn)

	assert.Equal(t, []string{"sushi"}, result.UnknownItems)
	assert.Nil(t, result.ContextUpdates["pendingOrder"])
}
