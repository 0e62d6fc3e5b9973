// Package food implements C8: the food-ordering domain handlers. Handlers
// are pure transformers of state — they never write the session directly;
// the orchestrator applies the returned ContextUpdates.
package food

import (
	"context"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/orders"
	"github.com/ndoemo/dialogbrain/internal/render"
)

// Deps bundles every collaborator a handler may call into.
type Deps struct {
	Catalog     *catalog.Catalog
	Repo        catalog.Repository
	NearbyCache *catalog.NearbyCache
	Orders      *orders.Store
}

// Turn is the read-only view of session state and the current turn's
// parsed input a handler needs. Handlers read it but never mutate the
// session it was built from.
type Turn struct {
	Ctx       context.Context
	SessionID string
	Text      string
	Entities  models.Entities
	Lat       *float64
	Lng       *float64

	CurrentRestaurant   *models.RestaurantRef
	LastRestaurant      *models.RestaurantRef
	LastRestaurantsList []models.RestaurantView
	LastMenu            []models.MenuItemView
	PendingDish         string
	PendingOrder        *models.PendingOrder
	Cart                []models.CartItem
	LastIntent          string
	ExpectedContext     string
}

// DomainResult is the uniform handler return shape.
type DomainResult struct {
	Reply              string
	Intent             string
	Restaurants        []models.RestaurantView
	MenuItems          []models.MenuItemView
	Actions            []models.Action
	ContextUpdates     map[string]any
	Meta               map[string]any
	NeedsClarification bool
	UnknownItems       []string
	NeedsLocation      bool
	// ClarifyBases is non-empty when the dish phrase matched several
	// variants inside one restaurant (sized/priced options) rather than
	// across restaurants.
	ClarifyBases []render.ClarifyBase
	ConversationClosed bool
	NewSessionID       string
}

// banned categories/tokens for MenuHandler.
var bannedMenuCategories = map[string]bool{
	"napoje": true, "sosy": true, "dodatki": true, "extra": true,
}
