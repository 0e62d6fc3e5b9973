package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/models"
)

func TestValidateItemBeforeAddClampsQtyToOne(t *testing.T) {
	item := catalog.MenuItemRow{Name: "Margherita", Available: true, PriceCents: 2500}
	result := ValidateItemBeforeAdd(item, 0, 25)
	assert.Equal(t, 1, result.Qty)
	assert.NoError(t, result.Err)
}

func TestValidateItemBeforeAddRejectsExcessiveQty(t *testing.T) {
	item := catalog.MenuItemRow{Name: "Margherita", Available: true, PriceCents: 2500}
	result := ValidateItemBeforeAdd(item, 51, 25)
	require.Error(t, result.Err)
}

func TestValidateItemBeforeAddWarnsOnPriceIncrease(t *testing.T) {
	item := catalog.MenuItemRow{Name: "Margherita", Available: true, PriceCents: 3000}
	result := ValidateItemBeforeAdd(item, 1, 25)
	require.NoError(t, result.Err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "ITEM_PRICE_INCREASED", result.Warnings[0].Code)
}

func TestValidateCartBeforeCheckoutBelowMinimum(t *testing.T) {
	restaurant := models.Restaurant{Name: "Pizzeria Roma", IsOpen: true, MinOrderPLN: 30}
	items := []models.CartItem{{Name: "Margherita", Price: 25, Qty: 1}}
	err := ValidateCartBeforeCheckout(items, restaurant, true)
	require.Error(t, err)
	var cartErr *CartValidationError
	require.ErrorAs(t, err, &cartErr)
	assert.Equal(t, ErrBelowMinimum, cartErr.Code)
}

func TestValidateCartBeforeCheckoutClosedRestaurant(t *testing.T) {
	restaurant := models.Restaurant{Name: "Pizzeria Roma", IsOpen: false, MinOrderPLN: 0}
	items := []models.CartItem{{Name: "Margherita", Price: 25, Qty: 1}}
	err := ValidateCartBeforeCheckout(items, restaurant, true)
	require.Error(t, err)
	var cartErr *CartValidationError
	require.ErrorAs(t, err, &cartErr)
	assert.Equal(t, ErrRestaurantClosed, cartErr.Code)
}

func TestValidateCartBeforeCheckoutPasses(t *testing.T) {
	restaurant := models.Restaurant{Name: "Pizzeria Roma", IsOpen: true, MinOrderPLN: 20}
	items := []models.CartItem{{Name: "Margherita", Price: 25, Qty: 1}}
	assert.NoError(t, ValidateCartBeforeCheckout(items, restaurant, true))
}
