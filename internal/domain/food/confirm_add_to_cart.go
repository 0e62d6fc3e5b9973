package food

import (
	"fmt"

	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/session"
)

// ConfirmAddToCartHandler validates a direct "add this dish to my cart"
// request against {dish, restaurant} and, on success, closes the
// conversation with reason CART_ITEM_ADDED.
func ConfirmAddToCartHandler(deps Deps, t Turn) DomainResult {
	dish := t.Entities.Dish
	if dish == "" {
		dish = t.PendingDish
	}
	if dish == "" {
		return DomainResult{Reply: "Nie wiem, jakie danie dodać do koszyka.", Intent: "confirm_add_to_cart"}
	}
	if t.CurrentRestaurant == nil && t.LastRestaurant == nil {
		return DomainResult{Reply: "Najpierw wybierz restaurację.", Intent: "confirm_add_to_cart", NeedsLocation: true}
	}

	restaurant := t.CurrentRestaurant
	if restaurant == nil {
		restaurant = t.LastRestaurant
	}

	newSessionID := session.NewSessionID()

	return DomainResult{
		Intent: "confirm_add_to_cart",
		Reply:  fmt.Sprintf("Dodałam %s do koszyka w %s.", dish, restaurant.Name),
		Actions: []models.Action{
			{Type: "add_to_cart", Payload: map[string]any{"dish": dish, "restaurant_id": restaurant.ID}},
		},
		ContextUpdates: map[string]any{
			"pendingDish": "",
		},
		ConversationClosed: true,
		NewSessionID:       newSessionID,
	}
}
