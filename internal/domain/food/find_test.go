package food

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/models"
)

type countingRepo struct {
	*catalog.MemoryRepository
	searches int
}

func (c *countingRepo) SearchRestaurants(ctx context.Context, city string, cuisines []string) ([]catalog.RestaurantRow, error) {
	c.searches++
	return c.MemoryRepository.SearchRestaurants(ctx, city, cuisines)
}

func findFixture() (*countingRepo, Deps) {
	rows := []catalog.RestaurantRow{
		{ID: "r1", Name: "Pizzeria Roma", City: "Bytom", Cuisine: "pizza", Lat: 50.348, Lng: 18.916, IsOpen: true},
		{ID: "r2", Name: "Bar Praha", City: "Bytom", Cuisine: "kebab", Lat: 50.349, Lng: 18.912, IsOpen: true},
	}
	repo := &countingRepo{MemoryRepository: catalog.NewMemoryRepository(rows, nil)}
	deps := Deps{
		Catalog: catalog.Build([]models.Restaurant{
			{ID: "r1", Name: "Pizzeria Roma", City: "Bytom"},
			{ID: "r2", Name: "Bar Praha", City: "Bytom"},
		}),
		Repo:        repo,
		NearbyCache: catalog.NewNearbyCache(),
	}
	return repo, deps
}

func TestFindAsksForLocationWithoutAnchor(t *testing.T) {
	_, deps := findFixture()

	result := FindRestaurantHandler(deps, Turn{Ctx: context.Background()})

	assert.True(t, result.NeedsLocation)
	assert.Equal(t, "location", result.ContextUpdates["awaiting"])
	assert.Equal(t, "find_nearby_ask_location", result.ContextUpdates["expectedContext"])
	assert.Empty(t, result.Restaurants)
}

func TestFindByCityPersistsLocationAndClearsAwaiting(t *testing.T) {
	_, deps := findFixture()

	result := FindRestaurantHandler(deps, Turn{Ctx: context.Background(), Entities: models.Entities{Location: "Bytom"}})

	require.Len(t, result.Restaurants, 2)
	assert.Equal(t, "Bytom", result.ContextUpdates["last_location"])
	assert.Equal(t, "", result.ContextUpdates["awaiting"])
	assert.Equal(t, "select_restaurant", result.ContextUpdates["expectedContext"])
	assert.Equal(t, 1, result.Restaurants[0].Index)
	assert.Equal(t, 2, result.Restaurants[1].Index)
}

func TestFindNearbyCoordinatesHitTileCache(t *testing.T) {
	repo, deps := findFixture()
	lat, lng := 50.3485, 18.9155

	first := FindRestaurantHandler(deps, Turn{Ctx: context.Background(), Lat: &lat, Lng: &lng})
	require.Len(t, first.Restaurants, 2)
	assert.Equal(t, 1, repo.searches)

	second := FindRestaurantHandler(deps, Turn{Ctx: context.Background(), Lat: &lat, Lng: &lng})
	require.Len(t, second.Restaurants, 2)
	assert.Equal(t, 1, repo.searches, "second identical-tile lookup must be served from the cache")
	require.NotNil(t, second.Restaurants[0].Distance)
}

func TestFindSingleResultExpectsMenuConfirmation(t *testing.T) {
	_, deps := findFixture()

	result := FindRestaurantHandler(deps, Turn{Ctx: context.Background(), Entities: models.Entities{Location: "Bytom", Cuisine: "pizza"}})

	require.Len(t, result.Restaurants, 1)
	assert.Equal(t, "confirm_menu", result.ContextUpdates["expectedContext"])
	ref, ok := result.ContextUpdates["currentRestaurant"].(*models.RestaurantRef)
	require.True(t, ok)
	assert.Equal(t, "r1", ref.ID)
}
