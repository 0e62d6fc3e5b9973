package food

import "github.com/ndoemo/dialogbrain/internal/models"

// CancelOrderHandler clears the pending order and its expectation without
// touching the cart or the currently selected restaurant.
func CancelOrderHandler(deps Deps, t Turn) DomainResult {
	return DomainResult{
		Intent: "cancel_order",
		Reply:  "Dobrze, anulowałam to zamówienie.",
		ContextUpdates: map[string]any{
			"pendingOrder":    (*models.PendingOrder)(nil),
			"expectedContext": "",
			"pendingDish":     "",
		},
	}
}
