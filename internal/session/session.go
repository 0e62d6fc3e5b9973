// Package session implements C6: session state, its lifecycle (creation,
// auto-rotation on close), the dialog stack storage, turn buffer and the
// positional entity cache.
package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ndoemo/dialogbrain/internal/models"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"

	ClosedReasonCartItemAdded = "CART_ITEM_ADDED"
	ClosedReasonOrderConfirmed = "ORDER_CONFIRMED"

	// LegacyStatusCompleted is the back-compat zombie marker honored only
	// as a kill-switch.
	LegacyStatusCompleted = "COMPLETED"

	turnBufferCap   = 5
	dialogStackCap  = 10
)

// EntityCacheEntry is one 1-indexed slot of the deictic entity cache
// ("the second one").
type EntityCacheEntry struct {
	Kind string // "restaurant" | "menu_item"
	ID   string
	Name string
}

// Session is the full per-conversation state. Handlers never write it
// directly: the orchestrator merges their contextUpdates, and makes its own
// gate/bridge/guard changes, while holding the session lock.
type Session struct {
	mu sync.Mutex

	ID           string
	Status       string
	ClosedReason string
	ClosedAt     *time.Time

	LastIntent      string
	ExpectedContext string
	Awaiting        string

	CurrentRestaurant  *models.RestaurantRef
	LastRestaurant     *models.RestaurantRef
	LockedRestaurantID string

	LastLocation    string
	LastCuisineType string

	LastRestaurantsList []models.RestaurantView
	LastMenu            []models.MenuItemView

	PendingDish  string
	PendingOrder *models.PendingOrder
	Cart         []models.CartItem

	DialogStack      []models.DialogStackEntry
	DialogStackIndex int

	TurnBuffer []models.TurnRecord

	EntityCache map[int]EntityCacheEntry

	// DialogFocus is a free-form UX marker set by soft-dialog bridges
	// (e.g. CHOOSING_RESTAURANT_FOR_MENU).
	DialogFocus string

	// LegacyStatus mirrors the pre-V2 `COMPLETED` marker; new code should
	// never set this, it only exists to be read by the zombie kill switch
	//.
	LegacyStatus string

	// LocationCache is a short-TTL per-session memoization of resolved
	// locations.
	LocationCache *gocache.Cache

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		Status:        StatusActive,
		EntityCache:   make(map[int]EntityCacheEntry),
		LocationCache: gocache.New(90*time.Second, 3*time.Minute),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Lock/Unlock implement the per-session turn serialization:
// acquired by the orchestrator when the turn starts and released after the
// context-update commit.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// PushTurn appends a turn record, keeping only the most recent
// turnBufferCap entries.
func (s *Session) PushTurn(rec models.TurnRecord) {
	s.TurnBuffer = append(s.TurnBuffer, rec)
	if len(s.TurnBuffer) > turnBufferCap {
		s.TurnBuffer = s.TurnBuffer[len(s.TurnBuffer)-turnBufferCap:]
	}
}

// SetEntityCacheFromList rewrites the positional entity cache from a
// freshly-shown restaurant list, 1-indexed and stable while that list is
// displayed.
func (s *Session) SetEntityCacheFromList(views []models.RestaurantView) {
	s.EntityCache = make(map[int]EntityCacheEntry, len(views))
	for i, v := range views {
		s.EntityCache[i+1] = EntityCacheEntry{Kind: "restaurant", ID: v.ID, Name: v.Name}
	}
}

// SetEntityCacheFromMenu rewrites the positional entity cache from a
// freshly-shown menu, so "poproszę drugą" can resolve against the item at
// position 2.
func (s *Session) SetEntityCacheFromMenu(items []models.MenuItemView) {
	s.EntityCache = make(map[int]EntityCacheEntry, len(items))
	for i, it := range items {
		s.EntityCache[i+1] = EntityCacheEntry{Kind: "menu_item", ID: it.ID, Name: it.Name}
	}
}

// Close marks the session closed with the given reason, one-way per the
// data-model invariant ("a closed session is never mutated again").
func (s *Session) Close(reason string) {
	now := time.Now()
	s.Status = StatusClosed
	s.ClosedReason = reason
	s.ClosedAt = &now
}

// IsIdleSince reports whether the session has had no activity since cutoff.
func (s *Session) IsIdleSince(cutoff time.Time) bool {
	return s.UpdatedAt.Before(cutoff)
}
