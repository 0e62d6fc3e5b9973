package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/icm"
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/nlu"
	"github.com/ndoemo/dialogbrain/internal/orders"
	"github.com/ndoemo/dialogbrain/internal/pkg/config"
	"github.com/ndoemo/dialogbrain/internal/session"
)

func testRestaurants() []models.Restaurant {
	return []models.Restaurant{
		{ID: "r1", Name: "Pizzeria Roma", City: "Bytom", Cuisine: "pizza", IsOpen: true, MinOrderPLN: 20},
		{ID: "r2", Name: "Bar Praha", City: "Bytom", Cuisine: "kebab", IsOpen: true, MinOrderPLN: 15},
	}
}

func testRepo() catalog.Repository {
	rows := []catalog.RestaurantRow{
		{ID: "r1", Name: "Pizzeria Roma", City: "Bytom", Cuisine: "pizza", IsOpen: true, MinOrderPLN: 20},
		{ID: "r2", Name: "Bar Praha", City: "Bytom", Cuisine: "kebab", IsOpen: true, MinOrderPLN: 15},
	}
	menus := map[string][]catalog.MenuItemRow{
		"r1": {{ID: "m1", RestaurantID: "r1", Name: "Pizza Margherita", PriceCents: 2500, Category: "pizza", Available: true}},
		"r2": {{ID: "m2", RestaurantID: "r2", Name: "Pizza Kebabowa", PriceCents: 2200, Category: "pizza", Available: true}},
	}
	return catalog.NewMemoryRepository(rows, menus)
}

func newTestPipeline() (*Pipeline, *session.Store) {
	return newTestPipelineWithOrders(nil)
}

func newTestPipelineWithOrders(ordersStore *orders.Store) (*Pipeline, *session.Store) {
	restaurants := testRestaurants()
	cat := catalog.Build(restaurants)
	repo := testRepo()
	icmMap := icm.Default()
	router := nlu.New(cat, icmMap)
	store := session.NewStore(nil)
	admin := config.NewAdminStore(config.AdminConfig{TTSEnabled: true, DialogNavigationEnabled: true, FallbackMode: "SMART"})

	p := New(store, router, icmMap, cat, repo, catalog.NewNearbyCache(), ordersStore, admin, nil)
	return p, store
}

func seedSession(store *session.Store, id string, mutate func(*session.Session)) {
	res := store.GetOrCreateActive(id)
	mutate(res.Session)
}

func twoRestaurantViews() []models.RestaurantView {
	return []models.RestaurantView{
		{ID: "r1", Name: "Pizzeria Roma", City: "Bytom", Index: 1},
		{ID: "r2", Name: "Bar Praha", City: "Bytom", Index: 2},
	}
}

func TestSoftDialogBridgeForMenu(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_menu", func(s *session.Session) {
		s.LastRestaurantsList = twoRestaurantViews()
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_menu", Text: "pokaż menu"})

	assert.True(t, resp.OK)
	assert.Equal(t, "menu_request", resp.Intent)
	assert.Contains(t, resp.Reply, "Pizzeria Roma")
	assert.Contains(t, resp.Reply, "Bar Praha")

	sess, ok := store.Lookup("sess_menu")
	require.True(t, ok)
	assert.Equal(t, "select_restaurant", sess.ExpectedContext)
	assert.Equal(t, "CHOOSING_RESTAURANT_FOR_MENU", sess.DialogFocus)
}

func TestICMBlocksLegacyOrdering(t *testing.T) {
	p, _ := newTestPipeline()

	resp := p.HandleTurn(context.Background(), models.Request{Text: "Pizzeria Roma pizza"})

	assert.True(t, resp.OK)
	assert.Equal(t, "find_nearby", resp.Intent)
	assert.Equal(t, nlu.SourceLegacyBlocked, resp.Meta.Source)
}

func TestPendingDishCarriedThroughSelection(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_pending", func(s *session.Session) {
		s.LastRestaurantsList = twoRestaurantViews()
	})

	bridge := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_pending", Text: "wybieram pizza"})
	require.True(t, bridge.OK)
	assert.Equal(t, "create_order", bridge.Intent)

	sess, ok := store.Lookup("sess_pending")
	require.True(t, ok)
	assert.Equal(t, "pizza", sess.PendingDish)
	assert.Equal(t, "select_restaurant", sess.ExpectedContext)

	pick := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_pending", Text: "dwa"})
	require.True(t, pick.OK)
	assert.Equal(t, "select_restaurant", pick.Intent)
	require.Len(t, pick.Actions, 1)
	assert.Equal(t, "create_order", pick.Actions[0].Type)
	restaurantPayload, _ := pick.Actions[0].Payload["restaurant"].(map[string]any)
	assert.Equal(t, "r2", restaurantPayload["id"])
	items, _ := pick.Actions[0].Payload["items"].([]map[string]any)
	require.Len(t, items, 1)
	assert.Equal(t, "pizza", items[0]["name"])
	assert.Equal(t, 1, items[0]["quantity"])

	sess, ok = store.Lookup("sess_pending")
	require.True(t, ok)
	require.NotNil(t, sess.CurrentRestaurant)
	assert.Equal(t, "r2", sess.CurrentRestaurant.ID)
	assert.Equal(t, "", sess.PendingDish)
	assert.Equal(t, "confirm_order", sess.ExpectedContext)
	require.NotNil(t, sess.PendingOrder)
}

type fakeRow struct {
	id  string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*string); ok {
			*p = r.id
		}
	}
	return nil
}

type fakeOrdersPool struct {
	mu     sync.Mutex
	byKey  map[string]string
	nextID int
}

func newFakeOrdersPool() *fakeOrdersPool {
	return &fakeOrdersPool{byKey: make(map[string]string)}
}

func (p *fakeOrdersPool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.Contains(sql, "INSERT INTO orders"):
		key, _ := args[len(args)-1].(string)
		if _, exists := p.byKey[key]; exists {
			return fakeRow{err: pgx.ErrNoRows}
		}
		p.nextID++
		id := fmt.Sprintf("order-%d", p.nextID)
		p.byKey[key] = id
		return fakeRow{id: id}

	case strings.Contains(sql, "FROM orders"):
		key, _ := args[0].(string)
		return fakeRow{id: p.byKey[key]}
	}
	return fakeRow{err: errors.New("pipeline_test: unexpected query")}
}

func TestConfirmOrderPersistsIdempotently(t *testing.T) {
	pool := newFakeOrdersPool()
	store := orders.NewStore(pool, nil)

	rec := orders.Record{
		RestaurantID:   "r1",
		RestaurantName: "Pizzeria Roma",
		SessionID:      "sess_confirm",
		Items:          []models.CartItem{{ID: "m1", Name: "Pizza Margherita", Price: 25, Qty: 1}},
		TotalPLN:       25,
		TotalCents:     2500,
		Status:         "confirmed",
	}
	rec.IdempotencyKey = orders.IdempotencyKey(rec.SessionID, rec.Items)

	firstID, err := store.PersistOrderToDB(context.Background(), rec)
	require.NoError(t, err)
	require.NotEmpty(t, firstID)

	secondID, err := store.PersistOrderToDB(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	p, sessStore := newTestPipelineWithOrders(store)

	seedSession(sessStore, "sess_confirm_turn", func(s *session.Session) {
		s.CurrentRestaurant = &models.RestaurantRef{ID: "r1", Name: "Pizzeria Roma", City: "Bytom"}
		s.ExpectedContext = "confirm_order"
		s.PendingOrder = &models.PendingOrder{
			RestaurantID:   "r1",
			RestaurantName: "Pizzeria Roma",
			Items:          []models.CartItem{{ID: "m1", Name: "Pizza Margherita", Price: 25, Qty: 1}},
			Total:          "25.00",
		}
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_confirm_turn", Text: "tak, potwierdzam"})
	require.True(t, resp.OK)
	assert.Equal(t, "confirm_order", resp.Intent)
	assert.True(t, resp.ConversationClosed)
	assert.NotEmpty(t, resp.NewSessionID)
}

func TestDialogNavRepeatBypassesNLU(t *testing.T) {
	p, store := newTestPipeline()

	first := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_repeat", Text: "szukam pizzerii w Bytomiu"})
	require.True(t, first.OK)

	repeat := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_repeat", Text: "powtórz"})
	require.True(t, repeat.OK)
	assert.Equal(t, first.Reply, repeat.Reply)
	assert.Equal(t, "rule_guard", repeat.Meta.Source)

	sess, ok := store.Lookup("sess_repeat")
	require.True(t, ok)
	assert.Equal(t, "find_nearby", sess.LastIntent)
}

func TestConfirmAddToCartEndToEnd(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_cart", func(s *session.Session) {
		s.CurrentRestaurant = &models.RestaurantRef{ID: "r2", Name: "Bar Praha", City: "Bytom"}
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_cart", Text: "dodaj kebab do koszyka"})

	require.True(t, resp.OK)
	assert.Equal(t, "confirm_add_to_cart", resp.Intent)
	assert.True(t, resp.ConversationClosed)
	assert.NotEmpty(t, resp.NewSessionID)
	assert.Contains(t, resp.Reply, "kebab")

	sess, ok := store.Lookup("sess_cart")
	require.True(t, ok)
	assert.Equal(t, session.StatusClosed, sess.Status)
	assert.Equal(t, session.ClosedReasonCartItemAdded, sess.ClosedReason)
}

func TestSessionAutoRotationReportsOriginalAndNewID(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_old", func(s *session.Session) {
		s.Close(session.ClosedReasonOrderConfirmed)
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_old", Text: "szukam pizzerii w Bytomiu"})

	require.True(t, resp.OK)
	assert.Equal(t, "sess_old", resp.SessionID)
	assert.NotEmpty(t, resp.NewSessionID)
	assert.NotEqual(t, "sess_old", resp.NewSessionID)

	_, ok := store.Lookup(resp.NewSessionID)
	assert.True(t, ok)
}

func TestDisambiguationOnAmbiguousDish(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_disambig", func(s *session.Session) {
		s.LastRestaurant = &models.RestaurantRef{ID: "r1", Name: "Pizzeria Roma", City: "Bytom"}
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_disambig", Text: "wybieram pizza"})

	require.True(t, resp.OK)
	assert.Equal(t, "choose_restaurant", resp.Intent)
	assert.Len(t, resp.Restaurants, 2)
	assert.Contains(t, resp.Reply, "pizza")

	sess, ok := store.Lookup("sess_disambig")
	require.True(t, ok)
	require.Len(t, sess.LastRestaurantsList, 2)
	assert.Equal(t, 1, sess.LastRestaurantsList[0].Index)
	assert.Equal(t, "pizza", sess.PendingDish)
	assert.Nil(t, sess.PendingOrder)
	assert.Equal(t, "choose_restaurant", sess.ExpectedContext)

	// Picking a candidate re-enters the order flow with the remembered dish.
	pick := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_disambig", Text: "pierwsza"})
	require.True(t, pick.OK)
	assert.Equal(t, "select_restaurant", pick.Intent)

	sess, ok = store.Lookup("sess_disambig")
	require.True(t, ok)
	require.NotNil(t, sess.PendingOrder)
	assert.Equal(t, "confirm_order", sess.ExpectedContext)
}

func TestLexicalOrderWithoutAnyRestaurantFallsBack(t *testing.T) {
	p, _ := newTestPipeline()

	resp := p.HandleTurn(context.Background(), models.Request{Text: "Zamawiam pizzę"})

	require.True(t, resp.OK)
	assert.Equal(t, "find_nearby", resp.Intent)
	assert.Equal(t, nlu.SourceICMFallback, resp.Meta.Source)
}

func TestAskLocationThenCityAnswerCompletesDiscovery(t *testing.T) {
	p, store := newTestPipeline()

	ask := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_loc", Text: "szukam restauracji"})
	require.True(t, ask.OK)
	assert.Equal(t, "find_nearby", ask.Intent)
	assert.Contains(t, ask.Reply, "miasto")

	sess, ok := store.Lookup("sess_loc")
	require.True(t, ok)
	assert.Equal(t, "location", sess.Awaiting)
	assert.Equal(t, "find_nearby_ask_location", sess.ExpectedContext)

	answer := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_loc", Text: "Bytom"})
	require.True(t, answer.OK)
	assert.Equal(t, "find_nearby", answer.Intent)
	assert.Len(t, answer.Restaurants, 2)

	sess, ok = store.Lookup("sess_loc")
	require.True(t, ok)
	assert.Equal(t, "", sess.Awaiting)
	assert.Equal(t, "Bytom", sess.LastLocation)
	assert.Equal(t, "select_restaurant", sess.ExpectedContext)
}

func TestDeicticOrderAgainstShownMenu(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_deixis", func(s *session.Session) {
		s.CurrentRestaurant = &models.RestaurantRef{ID: "r2", Name: "Bar Praha", City: "Bytom"}
		s.SetEntityCacheFromMenu([]models.MenuItemView{
			{ID: "m2", Name: "Pizza Kebabowa", PricePLN: 22, Category: "pizza"},
		})
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_deixis", Text: "poproszę pierwszą"})

	require.True(t, resp.OK)
	assert.Equal(t, "create_order", resp.Intent)

	sess, ok := store.Lookup("sess_deixis")
	require.True(t, ok)
	require.NotNil(t, sess.PendingOrder)
	require.Len(t, sess.PendingOrder.Items, 1)
	assert.Equal(t, "Pizza Kebabowa", sess.PendingOrder.Items[0].Name)
	assert.Equal(t, "confirm_order", sess.ExpectedContext)
}

type upperStylizer struct{}

func (upperStylizer) Stylize(_ context.Context, text string) (string, error) {
	return "Jasne! " + text, nil
}

func TestStylizerRewritesReplyAndRecordsTiming(t *testing.T) {
	p, store := newTestPipeline()
	p.Stylize = upperStylizer{}
	seedSession(store, "sess_style", func(s *session.Session) {
		s.CurrentRestaurant = &models.RestaurantRef{ID: "r2", Name: "Bar Praha", City: "Bytom"}
	})

	resp := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_style", Text: "poproszę pizza kebabowa"})

	require.True(t, resp.OK)
	assert.True(t, strings.HasPrefix(resp.Reply, "Jasne! "))
	assert.NotEmpty(t, resp.TTSText)
}

func TestZombieCompletedSessionLockedUntilReset(t *testing.T) {
	p, store := newTestPipeline()
	seedSession(store, "sess_zombie", func(s *session.Session) {
		s.LegacyStatus = session.LegacyStatusCompleted
	})

	locked := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_zombie", Text: "pokaż menu"})
	require.True(t, locked.OK)
	assert.Equal(t, "session_locked", locked.Intent)

	reset := p.HandleTurn(context.Background(), models.Request{SessionID: "sess_zombie", Text: "nowe zamówienie"})
	require.True(t, reset.OK)
	assert.Equal(t, "new_order", reset.Intent)

	sess, ok := store.Lookup("sess_zombie")
	require.True(t, ok)
	assert.Empty(t, sess.LegacyStatus)
}

func TestEmptyInputIsSoftFailure(t *testing.T) {
	p, _ := newTestPipeline()

	resp := p.HandleTurn(context.Background(), models.Request{Text: "   "})

	assert.False(t, resp.OK)
	assert.Equal(t, "brak_tekstu", resp.Error)
}
