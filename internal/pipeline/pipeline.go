// Package pipeline implements C7: the per-turn orchestrator that composes
// the dialog nav guard, NLU router, Intent Capability Map, domain handlers,
// surface renderer and TTS pipeline into one request/response cycle
//.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/domain/food"
	"github.com/ndoemo/dialogbrain/internal/icm"
	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/navguard"
	"github.com/ndoemo/dialogbrain/internal/nlu"
	"github.com/ndoemo/dialogbrain/internal/orders"
	"github.com/ndoemo/dialogbrain/internal/pkg/config"
	"github.com/ndoemo/dialogbrain/internal/pkg/telemetry"
	"github.com/ndoemo/dialogbrain/internal/render"
	"github.com/ndoemo/dialogbrain/internal/session"
	"github.com/ndoemo/dialogbrain/internal/tts"
)

// Pipeline wires every pipeline-stage collaborator.
type Pipeline struct {
	Sessions *session.Store
	NLU      *nlu.Router
	ICM      icm.Map
	Catalog  *catalog.Catalog
	Repo     catalog.Repository
	Orders   *orders.Store
	Admin    *config.AdminStore
	Logger   *zap.Logger

	TurnDeadline      time.Duration
	RepositoryTimeout time.Duration
	TTSTimeout        time.Duration

	// Synth is the optional external TTS provider; nil means
	// audio is never synthesized, only tts_text is computed.
	Synth tts.Synthesizer
	// Stylize is the optional external LLM reply stylizer; nil (or an
	// error) leaves the deterministic template reply untouched.
	Stylize tts.Stylizer

	deps     food.Deps
	handlers map[string]handlerFunc
}

type handlerFunc func(food.Deps, food.Turn) food.DomainResult

// New builds a Pipeline from its collaborators and registers the domain
// handler dispatch table.
func New(sessions *session.Store, router *nlu.Router, icmMap icm.Map, cat *catalog.Catalog, repo catalog.Repository, nearby *catalog.NearbyCache, ordersStore *orders.Store, admin *config.AdminStore, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		Sessions:          sessions,
		NLU:               router,
		ICM:               icmMap,
		Catalog:           cat,
		Repo:              repo,
		Orders:            ordersStore,
		Admin:             admin,
		Logger:            logger,
		TurnDeadline:      12 * time.Second,
		RepositoryTimeout: 4 * time.Second,
		TTSTimeout:        12 * time.Second,
	}
	p.deps = food.Deps{Catalog: cat, Repo: repo, NearbyCache: nearby, Orders: ordersStore}
	p.handlers = map[string]handlerFunc{
		"find_nearby":        food.FindRestaurantHandler,
		"menu_request":       food.MenuHandler,
		"select_restaurant":  food.SelectRestaurantHandler,
		"create_order":       food.OrderHandler,
		"confirm_add_to_cart": food.ConfirmAddToCartHandler,
		"cancel_order":       food.CancelOrderHandler,
		"show_more_options":  food.OptionHandler,
		"recommend":          food.RecommendHandler,
		"choose_restaurant":  food.ChooseRestaurantHandler,
	}
	return p
}

// HandleTurn runs one full turn: session resolution, nav guard, NLU, ICM
// gate, UX guards, domain dispatch, surface rendering, context commit and
// optional TTS.
func (p *Pipeline) HandleTurn(ctx context.Context, req models.Request) models.Response {
	start := time.Now()
	metrics := telemetry.Metrics()

	text := strings.TrimSpace(req.Utterance())
	if text == "" {
		return models.Response{
			OK:    false,
			Error: "brak_tekstu",
			Meta:  models.ResponseMeta{LatencyTotalMS: sinceMS(start)},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.deadline())
	defer cancel()

	resolution := p.Sessions.GetOrCreateActive(req.SessionID)
	sess := resolution.Session

	admin := p.adminSnapshot()

	sess.Lock()
	resp, replyForTTS, hasList := p.runLocked(ctx, sess, text, req, admin)
	sess.Unlock()

	// A request naming a closed session must be
	// reported back as both the original (closed) id and the freshly
	// rotated successor id that actually served this turn.
	if resolution.Rotated {
		resp.SessionID = resolution.OriginalID
		if resp.NewSessionID == "" {
			resp.NewSessionID = sess.ID
		}
	}

	if metrics != nil {
		metrics.TurnsTotal.Add(ctx, 1)
		metrics.IntentsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", resp.Meta.Source),
			attribute.String("intent", resp.Intent),
		))
	}

	p.applyTTS(ctx, &resp, replyForTTS, hasList, req, admin)

	resp.Meta.LatencyTotalMS = sinceMS(start)
	if metrics != nil {
		metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	}
	return resp
}

func (p *Pipeline) deadline() time.Duration {
	if p.TurnDeadline > 0 {
		return p.TurnDeadline
	}
	return 12 * time.Second
}

func (p *Pipeline) adminSnapshot() config.AdminConfig {
	if p.Admin == nil {
		return config.AdminConfig{TTSEnabled: true, DialogNavigationEnabled: true, FallbackMode: "SMART"}
	}
	return p.Admin.Snapshot()
}

func sinceMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// runLocked executes the guarded middle of the turn, nav guard through
// context commit, while the caller holds the session lock, returning the
// response along with the text that should be
// spoken (already first-line-trimmed when a list is present) and whether a
// restaurants/menuItems list is present on the response.
func (p *Pipeline) runLocked(ctx context.Context, sess *session.Session, text string, req models.Request, admin config.AdminConfig) (models.Response, string, bool) {
	defer sess.Touch()

	// Step 3: Dialog Nav Guard.
	if outcome := navguard.Handle(sess, text, admin.DialogNavigationEnabled, admin.FallbackMode); outcome.Matched {
		resp := models.Response{
			OK:        true,
			SessionID: sess.ID,
			Intent:    outcome.Intent,
			Reply:     outcome.Reply,
			Meta:      models.ResponseMeta{Source: "rule_guard"},
		}
		return resp, resp.Reply, false
	}

	// Step 4: NLU.
	nluResult := p.NLU.Route(text, sess.ExpectedContext)
	intent := nluResult.Intent
	source := nluResult.Source
	entities := nluResult.Entities

	// Deictic follow-ups ("poproszę drugą") resolve against the entity
	// cache of whatever list was last shown, before any gate or handler
	// sees the turn.
	resolveDeictic(sess, text, &entities)

	// Short-TTL per-query location memoization: a repeated discovery query
	// inside the TTL window reuses the location it resolved to last time.
	if intent == "find_nearby" {
		cacheKey := "loc:" + lexicon.Normalize(text)
		if entities.Location == "" {
			if v, ok := sess.LocationCache.Get(cacheKey); ok {
				entities.Location, _ = v.(string)
			}
		} else {
			sess.LocationCache.SetDefault(cacheKey, entities.Location)
		}
	}

	// Step 5: ICM gate (with soft-dialog bridges).
	icmCtx := p.buildICMContext(sess, entities)
	if !p.ICM.CheckRequiredState(intent, icmCtx) {
		if bridged, ok := p.softBridge(sess, intent, entities, text); ok {
			return bridged, bridged.Reply, false
		}
		entry := p.ICM.Get(intent)
		if entry.FallbackIntent == "" {
			resp := models.Response{
				OK:        true,
				SessionID: sess.ID,
				Intent:    "unknown",
				Reply:     "Nie mam nic do potwierdzenia w tym momencie.",
				Meta:      models.ResponseMeta{Source: "icm_fallback"},
			}
			return resp, resp.Reply, false
		}
		intent = entry.FallbackIntent
		source = nlu.SourceICMFallback
	}

	// Step 6: cart mutation guard.
	if p.ICM.Get(intent).MutatesCart && intent != "confirm_order" {
		intent = "find_nearby"
		source = "cart_mutation_blocked"
	}

	// Step 7: discovery reset.
	if intent == "find_nearby" && !strings.HasSuffix(source, "_blocked") && source != nlu.SourceICMFallback {
		sess.CurrentRestaurant = nil
		sess.LockedRestaurantID = ""
	}

	// Step 9: UX guards (menu-scoped ordering, fuzzy confirmation, auto-menu,
	// empty-order guards). Never re-enable a blocked intent.
	if !strings.HasSuffix(source, "_blocked") && source != nlu.SourceICMFallback {
		intent = p.applyUXGuards(sess, text, intent, entities)
	}

	// Step 10: zombie kill switch.
	if sess.LegacyStatus == session.LegacyStatusCompleted {
		switch intent {
		case "new_order", "start_over", "help":
			sess.LegacyStatus = ""
		default:
			resp := models.Response{
				OK:        true,
				SessionID: sess.ID,
				Intent:    "session_locked",
				Reply:     "Ta rozmowa jest zakończona. Powiedz 'nowe zamówienie', żeby zacząć od nowa.",
				Meta:      models.ResponseMeta{Source: source},
			}
			return resp, resp.Reply, false
		}
	}

	// Step 11: dispatch.
	result := p.dispatch(ctx, sess, text, intent, entities, req)

	// Step 12: surface detection.
	finalIntent := intent
	reply := result.Reply
	if result.NeedsClarification {
		finalIntent = "choose_restaurant"
	}
	if key, ok := render.DetectSurface(result.NeedsClarification, result.NeedsLocation, result.UnknownItems, len(result.ClarifyBases), len(result.Restaurants), stringOr(result.ContextUpdates["expectedContext"], sess.ExpectedContext)); ok {
		rendered := render.Render(key, p.factsFor(key, sess, entities, result))
		reply = rendered.Reply
	}
	if reply == "" {
		reply = result.Reply
	}

	// Step 13: dialog stack push.
	navguard.Push(sess, models.DialogStackEntry{
		SurfaceKey:   finalIntent,
		Facts:        map[string]any{"restaurants": result.Restaurants, "menuItems": result.MenuItems},
		RenderedText: reply,
	})

	// Step 14: apply contextUpdates atomically.
	sess.LastIntent = intent
	applyContextUpdates(sess, result.ContextUpdates)
	sess.PushTurn(models.TurnRecord{UserUtterance: text, AssistantUtterance: reply, Entities: entities, At: time.Now()})

	resp := models.Response{
		OK:                 true,
		SessionID:          sess.ID,
		Intent:             finalIntent,
		Reply:              reply,
		Restaurants:        result.Restaurants,
		MenuItems:          result.MenuItems,
		Actions:            result.Actions,
		ConversationClosed: result.ConversationClosed,
		NewSessionID:       result.NewSessionID,
		Meta:               models.ResponseMeta{Source: source},
	}
	if result.ConversationClosed {
		sess.Close(closedReasonFor(intent))
	}

	hasList := len(result.Restaurants) > 0 || len(result.MenuItems) > 0
	return resp, reply, hasList
}

func closedReasonFor(intent string) string {
	if intent == "confirm_add_to_cart" {
		return session.ClosedReasonCartItemAdded
	}
	return session.ClosedReasonOrderConfirmed
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// buildICMContext assembles the turn's evaluation context for the ICM gate
// from current session state plus
// this turn's extracted entities.
func (p *Pipeline) buildICMContext(sess *session.Session, entities models.Entities) map[string]any {
	return map[string]any{
		"currentRestaurant":     sess.CurrentRestaurant,
		"lastRestaurant":        sess.LastRestaurant,
		"pendingOrder":          sess.PendingOrder,
		"expectedContext":       sess.ExpectedContext,
		"last_restaurants_list": sess.LastRestaurantsList,
		"pendingDish":           sess.PendingDish,
		"entities.dish":         entities.Dish,
	}
}

// softBridge implements the soft-dialog bridges: an ICM miss
// on menu_request/create_order, when a restaurant list is already on the
// table, asks which restaurant instead of falling back to find_nearby.
func (p *Pipeline) softBridge(sess *session.Session, intent string, entities models.Entities, text string) (models.Response, bool) {
	if len(sess.LastRestaurantsList) == 0 {
		return models.Response{}, false
	}

	switch intent {
	case "menu_request":
		rendered := render.Render(render.AskRestaurantForMenu, render.Facts{Restaurants: sess.LastRestaurantsList})
		sess.ExpectedContext = "select_restaurant"
		sess.DialogFocus = "CHOOSING_RESTAURANT_FOR_MENU"
		navguard.Push(sess, models.DialogStackEntry{SurfaceKey: "menu_request", RenderedText: rendered.Reply})
		return models.Response{
			OK: true, SessionID: sess.ID, Intent: "menu_request", Reply: rendered.Reply,
			Meta: models.ResponseMeta{Source: "icm_soft_bridge"},
		}, true

	case "create_order":
		dish := entities.Dish
		if dish == "" && len(entities.Items) > 0 {
			dish = entities.Items[0]
		}
		if dish == "" {
			dish = text
		}
		rendered := render.Render(render.AskRestaurantForOrder, render.Facts{Restaurants: sess.LastRestaurantsList, Dish: dish})
		sess.ExpectedContext = "select_restaurant"
		sess.DialogFocus = "CHOOSING_RESTAURANT_FOR_ORDER"
		sess.PendingDish = dish
		navguard.Push(sess, models.DialogStackEntry{SurfaceKey: "create_order", RenderedText: rendered.Reply})
		return models.Response{
			OK: true, SessionID: sess.ID, Intent: "create_order", Reply: rendered.Reply,
			Meta: models.ResponseMeta{Source: "icm_soft_bridge"},
		}, true
	}

	return models.Response{}, false
}

// factsFor builds the render.Facts a detected surface key needs out of
// session state, entities and the handler's result.
func (p *Pipeline) factsFor(key string, sess *session.Session, entities models.Entities, result food.DomainResult) render.Facts {
	facts := render.Facts{
		City:        entities.Location,
		Dish:        entities.Dish,
		Restaurants: result.Restaurants,
	}
	if len(result.UnknownItems) > 0 {
		facts.UnknownItem = result.UnknownItems[0]
	}
	facts.ClarifyBases = result.ClarifyBases
	if sess.CurrentRestaurant != nil {
		facts.CurrentRestaurant = sess.CurrentRestaurant.Name
	}
	if key == render.ChooseRestaurant && len(facts.Restaurants) == 0 {
		facts.Restaurants = sess.LastRestaurantsList
	}
	return facts
}

// dispatch resolves and invokes the handler for intent,
// falling back to the system fallback handler when none is registered.
func (p *Pipeline) dispatch(ctx context.Context, sess *session.Session, text, intent string, entities models.Entities, req models.Request) food.DomainResult {
	// Repository range queries run under their own operation-level
	// timeout, tighter than the turn deadline.
	if p.RepositoryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.RepositoryTimeout)
		defer cancel()
	}

	turn := food.Turn{
		Ctx:                 ctx,
		SessionID:           sess.ID,
		Text:                text,
		Entities:            entities,
		Lat:                 req.Lat,
		Lng:                 req.Lng,
		CurrentRestaurant:   sess.CurrentRestaurant,
		LastRestaurant:      sess.LastRestaurant,
		LastRestaurantsList: sess.LastRestaurantsList,
		LastMenu:            sess.LastMenu,
		PendingDish:         sess.PendingDish,
		PendingOrder:        sess.PendingOrder,
		Cart:                sess.Cart,
		LastIntent:          sess.LastIntent,
		ExpectedContext:     sess.ExpectedContext,
	}

	switch intent {
	case "confirm_order":
		restaurantID := ""
		if sess.PendingOrder != nil {
			restaurantID = sess.PendingOrder.RestaurantID
		}
		restaurant, found := p.Catalog.ByID(restaurantID)
		return food.ConfirmOrderHandler(p.deps, turn, restaurant, found, p.Logger)

	case "new_order", "start_over":
		resetOrderingState(sess)
		return food.DomainResult{Reply: "Zaczynamy od nowa. Gdzie chcesz zjeść?", Intent: intent}

	case "help":
		return food.DomainResult{
			Reply:  "Powiedz mi miasto albo nazwę restauracji, a pomogę Ci zamówić jedzenie. W trakcie rozmowy możesz też powiedzieć 'cofnij', 'powtórz' albo 'stop'.",
			Intent: intent,
		}

	case "unknown":
		return food.DomainResult{Reply: "Nie zrozumiałam, możesz powtórzyć?", Intent: intent}

	case "confirm_restaurant":
		name := ""
		if sess.CurrentRestaurant != nil {
			name = sess.CurrentRestaurant.Name
		}
		return food.DomainResult{
			Reply:  fmt.Sprintf("Czy nadal chodzi Ci o %s, czy mam poszukać innej restauracji?", name),
			Intent: intent,
		}

	case "cancel_order", "recommend", "choose_restaurant":
		if h, ok := p.handlers[intent]; ok {
			return h(p.deps, turn)
		}
		return food.DomainResult{Reply: "Dobrze.", Intent: intent}

	case "select_restaurant":
		if h, ok := p.handlers[intent]; ok {
			return p.resolvePendingDishOrder(turn, h(p.deps, turn))
		}
		return food.DomainResult{Reply: "Nie rozumiem tej prośby, spróbuj inaczej.", Intent: "unknown"}
	}

	if h, ok := p.handlers[intent]; ok {
		return h(p.deps, turn)
	}
	return food.DomainResult{Reply: "Nie rozumiem tej prośby, spróbuj inaczej.", Intent: "unknown"}
}

// resolvePendingDishOrder completes a restaurant selection that carried a
// pendingDish: the turn must re-enter the order flow so expectedContext
// actually becomes confirm_order rather than stopping at the select
// handler's own synthetic create_order action. It consumes that action
// (restaurant id + dish name) and runs disambiguation/pendingOrder
// construction against the newly chosen restaurant, keeping the outer
// intent as select_restaurant while adopting the order flow's context
// updates and reply.
func (p *Pipeline) resolvePendingDishOrder(turn food.Turn, result food.DomainResult) food.DomainResult {
	dish, ok := pendingDishFromAction(result)
	if !ok {
		return result
	}
	restaurant, ok := result.ContextUpdates["currentRestaurant"].(*models.RestaurantRef)
	if !ok || restaurant == nil {
		return result
	}

	orderTurn := turn
	orderTurn.Text = dish
	orderTurn.Entities = models.Entities{Dish: dish}
	orderTurn.CurrentRestaurant = restaurant
	orderTurn.PendingDish = ""

	orderResult := food.OrderHandler(p.deps, orderTurn)

	merged := make(map[string]any, len(result.ContextUpdates)+len(orderResult.ContextUpdates))
	for k, v := range result.ContextUpdates {
		merged[k] = v
	}
	for k, v := range orderResult.ContextUpdates {
		merged[k] = v
	}

	return food.DomainResult{
		Intent:             result.Intent,
		Reply:              orderResult.Reply,
		Restaurants:        orderResult.Restaurants,
		Actions:            result.Actions,
		ContextUpdates:     merged,
		NeedsClarification: orderResult.NeedsClarification,
		UnknownItems:       orderResult.UnknownItems,
	}
}

// pendingDishFromAction extracts the dish name from a select_restaurant
// handler's synthetic create_order action ({restaurant:{id}, items:[{name,
// quantity}]}).
func pendingDishFromAction(result food.DomainResult) (string, bool) {
	for _, act := range result.Actions {
		if act.Type != "create_order" {
			continue
		}
		items, ok := act.Payload["items"].([]map[string]any)
		if !ok || len(items) == 0 {
			continue
		}
		name, ok := items[0]["name"].(string)
		if ok && name != "" {
			return name, true
		}
	}
	return "", false
}

// deicticFillerTokens are the words allowed to accompany a bare positional
// reference; anything else (a dish name, a quantity phrase) means the
// number is not a list position.
var deicticFillerTokens = map[string]bool{
	"poprosze": true, "prosze": true, "wezme": true, "wybieram": true,
	"ta": true, "ten": true, "to": true, "opcja": true, "opcje": true,
	"numer": true, "nr": true,
}

// resolveDeictic resolves "the second one" style references against the
// positional entity cache of the last shown restaurant or menu list.
func resolveDeictic(sess *session.Session, text string, entities *models.Entities) {
	if entities.Dish != "" || entities.Restaurant != "" {
		return
	}
	pos, ok := lexicon.ParseListPosition(text)
	if !ok {
		return
	}
	for _, tok := range lexicon.Tokenize(text) {
		if deicticFillerTokens[tok] {
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			continue
		}
		if n, isOrdinal := lexicon.ParseOrdinalPl(tok); isOrdinal && n == pos {
			continue
		}
		if n, isCardinal := lexicon.CardinalValue(tok); isCardinal && n == pos {
			continue
		}
		return
	}
	entry, ok := sess.EntityCache[pos]
	if !ok {
		return
	}
	switch entry.Kind {
	case "restaurant":
		entities.Restaurant = entry.ID
	case "menu_item":
		entities.Dish = entry.Name
	}
}

func resetOrderingState(sess *session.Session) {
	sess.CurrentRestaurant = nil
	sess.LastRestaurant = nil
	sess.LockedRestaurantID = ""
	sess.PendingDish = ""
	sess.PendingOrder = nil
	sess.ExpectedContext = ""
	sess.LastRestaurantsList = nil
	sess.LastMenu = nil
}

// applyContextUpdates merges a handler's declared context deltas into the
// session, field by field.
func applyContextUpdates(sess *session.Session, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "currentRestaurant":
			sess.CurrentRestaurant, _ = value.(*models.RestaurantRef)
		case "lastRestaurant":
			sess.LastRestaurant, _ = value.(*models.RestaurantRef)
		case "lockedRestaurantId":
			sess.LockedRestaurantID, _ = value.(string)
		case "last_restaurants_list":
			if v, ok := value.([]models.RestaurantView); ok {
				sess.LastRestaurantsList = v
				sess.SetEntityCacheFromList(v)
			}
		case "last_menu":
			if v, ok := value.([]models.MenuItemView); ok {
				sess.LastMenu = v
				sess.SetEntityCacheFromMenu(v)
			}
		case "pendingDish":
			sess.PendingDish, _ = value.(string)
		case "pendingOrder":
			sess.PendingOrder, _ = value.(*models.PendingOrder)
		case "expectedContext":
			sess.ExpectedContext, _ = value.(string)
		case "cart":
			if v, ok := value.([]models.CartItem); ok {
				sess.Cart = v
			}
		case "dialog_focus":
			sess.DialogFocus, _ = value.(string)
		case "last_location":
			sess.LastLocation, _ = value.(string)
		case "lastCuisineType":
			sess.LastCuisineType, _ = value.(string)
		case "awaiting":
			sess.Awaiting, _ = value.(string)
		}
	}
}

// applyTTS runs the post-commit tail of the turn outside the session lock:
// optional LLM reply
// styling, then tts_text computation (no network), then synthesis when the
// caller asked for audio and an external synthesizer is wired in. Styling
// and synthesis share the aggregate TTS timeout; both degrade silently.
func (p *Pipeline) applyTTS(ctx context.Context, resp *models.Response, reply string, hasList bool, req models.Request, admin config.AdminConfig) {
	if !resp.OK || reply == "" {
		return
	}

	if p.TTSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TTSTimeout)
		defer cancel()
	}

	if p.Stylize != nil {
		styleStart := time.Now()
		styled, err := p.Stylize.Stylize(ctx, reply)
		resp.Meta.StylingMS = time.Since(styleStart).Milliseconds()
		if err != nil {
			p.Logger.Warn("pipeline: reply styling failed", zap.Error(err))
		} else if strings.TrimSpace(styled) != "" {
			reply = styled
			resp.Reply = styled
		}
	}

	spoken := reply
	if hasList {
		spoken = tts.FirstLineOnly(reply)
	}
	resp.TTSText = spoken

	if !admin.TTSEnabled || !req.IncludeTTS || p.Synth == nil {
		return
	}

	start := time.Now()
	result := tts.ProcessForTTS(spoken)
	var audio []byte
	for _, chunk := range result.Chunks {
		b, err := p.Synth.Synthesize(ctx, chunk, result.Pacing)
		if err != nil {
			p.Logger.Warn("pipeline: tts synthesis failed", zap.Error(err))
			return
		}
		audio = append(audio, b...)
	}
	if len(audio) > 0 {
		resp.AudioContent = encodeAudio(audio)
	}
	resp.Meta.TTSMs = time.Since(start).Milliseconds()
}

func encodeAudio(audio []byte) string {
	return base64.StdEncoding.EncodeToString(audio)
}
