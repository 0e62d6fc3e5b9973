package food

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/orders"
	"github.com/ndoemo/dialogbrain/internal/session"
)

// ConfirmOrderHandler commits the session's pendingOrder into the cart and
// persists it idempotently. It is the only handler the ICM allows to carry
// MUTATES_CART. The orchestrator has already checked
// pendingOrder is non-empty and expectedContext == confirm_order before
// dispatch; this handler still defends against a nil pendingOrder so a
// programming slip here surfaces as a reply, not a panic.
func ConfirmOrderHandler(deps Deps, t Turn, restaurant models.Restaurant, restaurantFound bool, logger *zap.Logger) DomainResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	if t.PendingOrder == nil || len(t.PendingOrder.Items) == 0 {
		return DomainResult{Reply: "Koszyk jest pusty.", Intent: "confirm_order"}
	}

	cartItems := append(append([]models.CartItem{}, t.Cart...), t.PendingOrder.Items...)

	if err := orders.ValidateCartBeforeCheckout(t.PendingOrder.Items, restaurant, restaurantFound); err != nil {
		return DomainResult{
			Reply:  cartErrorReply(err),
			Intent: "confirm_order",
		}
	}

	total := orders.Total(t.PendingOrder.Items)
	idemKey := orders.IdempotencyKey(t.SessionID, t.PendingOrder.Items)
	var orderID string
	if deps.Orders != nil {
		rec := orders.Record{
			RestaurantID:   t.PendingOrder.RestaurantID,
			RestaurantName: t.PendingOrder.RestaurantName,
			SessionID:      t.SessionID,
			IdempotencyKey: idemKey,
			Items:          t.PendingOrder.Items,
			TotalPLN:       total,
			TotalCents:     int64(total*100 + 0.5),
			Status:         "confirmed",
		}
		id, err := deps.Orders.PersistOrderToDB(t.Ctx, rec)
		if err != nil {
			// Persistence failures never block the conversational reply
			// — the idempotency key
			// preserves intent for a later retry.
			logger.Warn("food: order persistence failed", zap.Error(err), zap.String("session_id", t.SessionID))
		} else {
			orderID = id
		}
	}

	newSessionID := session.NewSessionID()

	return DomainResult{
		Intent: "confirm_order",
		Reply:  fmt.Sprintf("Zamówienie przyjęte! Razem %.2f zł. Dziękuję!", total),
		Actions: []models.Action{
			{Type: "SHOW_CART", Payload: map[string]any{"items": cartItems, "order_id": orderID}},
		},
		Meta: map[string]any{
			"addedToCart": true,
			"order_id":    orderID,
		},
		ContextUpdates: map[string]any{
			"cart":            cartItems,
			"pendingOrder":    (*models.PendingOrder)(nil),
			"expectedContext": "",
		},
		ConversationClosed: true,
		NewSessionID:       newSessionID,
	}
}

func cartErrorReply(err error) string {
	cartErr, ok := err.(*orders.CartValidationError)
	if !ok {
		return "Nie udało się złożyć zamówienia."
	}
	switch cartErr.Code {
	case orders.ErrRestaurantClosed:
		return cartErr.Message + "."
	case orders.ErrBelowMinimum:
		return cartErr.Message + "."
	case orders.ErrMixedRestaurants:
		return "Zamówienie łączy pozycje z różnych restauracji."
	default:
		return cartErr.Message
	}
}
