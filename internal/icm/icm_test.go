package icm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRequiredStateMenuRequest(t *testing.T) {
	m := Default()

	assert.False(t, m.CheckRequiredState("menu_request", map[string]any{}))
	assert.True(t, m.CheckRequiredState("menu_request", map[string]any{"currentRestaurant": "r1"}))
}

func TestCheckRequiredStateCreateOrderOr(t *testing.T) {
	m := Default()

	assert.False(t, m.CheckRequiredState("create_order", map[string]any{}))
	assert.True(t, m.CheckRequiredState("create_order", map[string]any{"lastRestaurant": "r1"}))
	assert.True(t, m.CheckRequiredState("create_order", map[string]any{"currentRestaurant": "r1"}))
}

func TestCheckRequiredStateConfirmOrderExactMatch(t *testing.T) {
	m := Default()

	ctx := map[string]any{
		"pendingOrder":    []string{"x"},
		"expectedContext": "confirm_order",
	}
	assert.True(t, m.CheckRequiredState("confirm_order", ctx))

	ctx["expectedContext"] = "select_restaurant"
	assert.False(t, m.CheckRequiredState("confirm_order", ctx))
}

func TestOnlyConfirmOrderMutatesCart(t *testing.T) {
	m := Default()
	for intent, entry := range m {
		if intent != "confirm_order" {
			assert.Falsef(t, entry.MutatesCart, "intent %q must not carry MUTATES_CART", intent)
		}
	}
	assert.True(t, m["confirm_order"].MutatesCart)
}
