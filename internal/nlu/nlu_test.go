package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/icm"
	"github.com/ndoemo/dialogbrain/internal/models"
)

func testCatalog() *catalog.Catalog {
	return catalog.Build([]models.Restaurant{
		{ID: "r1", Name: "Pizzeria Roma", Aliases: []string{"Roma"}, City: "Warszawa"},
	})
}

func TestContextShortCircuitConfirmOrder(t *testing.T) {
	router := New(testCatalog(), icm.Default())

	res := router.Route("tak, potwierdzam", "confirm_order")
	assert.Equal(t, "confirm_order", res.Intent)
	assert.Equal(t, SourceContextLock, res.Source)

	res = router.Route("nie dzisiaj", "confirm_order")
	assert.Equal(t, "cancel_order", res.Intent)
}

func TestContextShortCircuitSelectRestaurant(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("druga", "show_more_options")
	assert.Equal(t, "select_restaurant", res.Intent)
	assert.Equal(t, SourceContextLock, res.Source)
	assert.Equal(t, "druga", res.Entities.Restaurant)
}

func TestLexicalOverrideCreateOrder(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("poproszę dużą pizzę", "")
	assert.Equal(t, "create_order", res.Intent)
	assert.Equal(t, SourceLexicalOverride, res.Source)
}

func TestLexicalOverrideConfirmAddToCart(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("dodaj kebab do koszyka", "")
	assert.Equal(t, "confirm_add_to_cart", res.Intent)
	assert.Equal(t, SourceLexicalOverride, res.Source)
	assert.Equal(t, "kebab", res.Entities.Dish)
}

func TestLexicalOverrideExcludesVagueWant(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("chcę coś zjeść", "")
	assert.NotEqual(t, SourceLexicalOverride, res.Source)
}

func TestRegexFindNearby(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("szukam pizzerii w Krakowie", "")
	assert.Equal(t, "find_nearby", res.Intent)
	assert.Equal(t, SourceRegexV2, res.Source)
	assert.Equal(t, "Krakowie", res.Entities.Location)
}

func TestRegexMenuRequest(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("pokaż menu", "")
	assert.Equal(t, "menu_request", res.Intent)
}

func TestCatalogMatchSelectsRestaurant(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("Pizzeria Roma", "")
	assert.Equal(t, "select_restaurant", res.Intent)
	assert.Equal(t, SourceClassicLegacy, res.Source)
	assert.Equal(t, "r1", res.Entities.Restaurant)
}

func TestCatalogMatchWithDishWordHardBlocked(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("Roma pizza", "")
	assert.Equal(t, "find_nearby", res.Intent)
	assert.Equal(t, SourceLegacyBlocked, res.Source)
}

func TestContextShortCircuitChooseRestaurant(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("pierwsza", "choose_restaurant")
	assert.Equal(t, "select_restaurant", res.Intent)
	assert.Equal(t, SourceContextLock, res.Source)
}

func TestContextShortCircuitConfirmMenu(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("tak, pokaż", "confirm_menu")
	assert.Equal(t, "menu_request", res.Intent)
	assert.Equal(t, SourceContextLock, res.Source)
}

func TestContextShortCircuitAskLocationReadsCity(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("Bytom", "find_nearby_ask_location")
	assert.Equal(t, "find_nearby", res.Intent)
	assert.Equal(t, "Bytom", res.Entities.Location)
	assert.Equal(t, SourceContextLock, res.Source)
}

func TestAskLocationContextYieldsToFreshDiscovery(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("szukam kebaba w Katowicach", "find_nearby_ask_location")
	assert.Equal(t, "find_nearby", res.Intent)
	assert.Equal(t, SourceRegexV2, res.Source)
	assert.Equal(t, "Katowicach", res.Entities.Location)
}

func TestLexicalOverrideExtractsUnknownDishPhrase(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("poproszę margherita", "")
	assert.Equal(t, "create_order", res.Intent)
	assert.Equal(t, "margherita", res.Entities.Dish)
}

func TestLexicalOverrideLeavesBarePositionToDeixis(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("poproszę drugą", "")
	assert.Equal(t, "create_order", res.Intent)
	assert.Empty(t, res.Entities.Dish)
}

func TestUnknownFallback(t *testing.T) {
	router := New(testCatalog(), icm.Default())
	res := router.Route("asdkjashdkj", "")
	assert.Equal(t, "unknown", res.Intent)
	assert.Equal(t, SourceFallback, res.Source)
}
