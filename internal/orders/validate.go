// Package orders implements C10: item and cart validation plus the
// idempotent order-persistence path.
package orders

import (
	"fmt"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/models"
)

// ValidationWarning carries a non-fatal correction applied during item
// validation.
type ValidationWarning struct {
	Code    string
	Message string
}

// ItemValidationResult is the outcome of validateItemBeforeAdd.
type ItemValidationResult struct {
	Item     catalog.MenuItemRow
	Qty      int
	Warnings []ValidationWarning
	Err      error
}

// ValidateItemBeforeAdd auto-corrects quantity, rejects out-of-range
// quantities, checks DB presence/availability, and always adopts the
// current DB price, emitting a warning when it rose above what the user
// was quoted.
func ValidateItemBeforeAdd(item catalog.MenuItemRow, requestedQty int, requestedPrice float64) ItemValidationResult {
	qty := requestedQty
	if qty < 1 {
		qty = 1
	}
	if qty > 50 {
		return ItemValidationResult{Err: fmt.Errorf("orders: quantity %d exceeds maximum of 50", qty)}
	}
	if !item.Available {
		return ItemValidationResult{Err: fmt.Errorf("orders: item %q is not available", item.Name)}
	}

	result := ItemValidationResult{Item: item, Qty: qty}
	currentPrice := item.PriceFloat()
	if requestedPrice > 0 && currentPrice-requestedPrice > 0.01 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Code:    "ITEM_PRICE_INCREASED",
			Message: fmt.Sprintf("cena %s wzrosła do %.2f zł", item.Name, currentPrice),
		})
	}
	return result
}

// CartValidationError names one of the cart-level rejection codes.
type CartValidationError struct {
	Code    string
	Message string
}

func (e *CartValidationError) Error() string { return e.Message }

const (
	ErrMixedRestaurants = "MIXED_RESTAURANTS"
	ErrRestaurantClosed = "RESTAURANT_CLOSED"
	ErrBelowMinimum     = "BELOW_MINIMUM_ORDER"
)

// ValidateCartBeforeCheckout enforces: a single restaurant per cart, that
// restaurant must exist and be open, and the total must clear its minimum
// order amount.
func ValidateCartBeforeCheckout(items []models.CartItem, restaurant models.Restaurant, restaurantFound bool) error {
	if len(items) == 0 {
		return &CartValidationError{Code: "EMPTY_CART", Message: "koszyk jest pusty"}
	}
	if !restaurantFound {
		return &CartValidationError{Code: "RESTAURANT_NOT_FOUND", Message: "nie znaleziono restauracji"}
	}
	if !restaurant.IsOpen {
		return &CartValidationError{Code: ErrRestaurantClosed, Message: fmt.Sprintf("%s jest obecnie zamknięta", restaurant.Name)}
	}

	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Qty)
	}
	if total < restaurant.MinOrderPLN {
		return &CartValidationError{
			Code:    ErrBelowMinimum,
			Message: fmt.Sprintf("minimalne zamówienie w %s to %.2f zł", restaurant.Name, restaurant.MinOrderPLN),
		}
	}
	return nil
}

// Total sums a cart's line items.
func Total(items []models.CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Qty)
	}
	return total
}
