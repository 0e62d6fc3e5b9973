package food

import (
	"fmt"
	"strings"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/disambig"
	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/orders"
	"github.com/ndoemo/dialogbrain/internal/render"
)

// OrderHandler resolves the dish(es) named in the turn to concrete menu
// items via disambiguation and builds or merges the pending order. A
// compound utterance ("dwa kebaby i cola") is split by the order parser
// and every segment is resolved independently.
func OrderHandler(deps Deps, t Turn) DomainResult {
	currentID := ""
	if t.CurrentRestaurant != nil {
		currentID = t.CurrentRestaurant.ID
	}

	parsed := t.Entities.ParsedOrder
	if parsed == nil || !parsed.Any {
		p := disambig.ParseOrder(orderSourceText(t))
		parsed = &p
	}
	if parsed.Any && len(parsed.Groups) == 1 && len(parsed.Groups[0].Items) > 1 {
		return orderMultiple(deps, t, parsed.Groups[0].Items, currentID)
	}

	// The parsed item name is preferred over the NLU dish entity: the
	// parser keeps the full phrase ("pizza margherita") where the dish
	// vocabulary only recognized its head word.
	dish := ""
	if parsed.Any {
		dish = parsed.Groups[0].Items[0].Name
	}
	if dish == "" {
		dish = t.Entities.Dish
	}
	if dish == "" && len(t.Entities.Items) > 0 {
		dish = t.Entities.Items[0]
	}
	if dish == "" {
		dish = t.Text
	}

	outcome := disambig.Resolve(t.Ctx, deps.Repo, deps.Catalog.All(), currentID, dish)

	switch outcome.Kind {
	case disambig.ItemNotFound:
		return DomainResult{
			Reply:        fmt.Sprintf("Nie znalazłam pozycji „%s”. Możesz to inaczej powiedzieć?", dish),
			Intent:       "create_order",
			UnknownItems: []string{dish},
		}

	case disambig.DisambiguationRequired:
		if bases, sameRestaurant := clarifyWithinRestaurant(outcome.Candidates); sameRestaurant {
			return DomainResult{
				Intent:       "create_order",
				ClarifyBases: bases,
				ContextUpdates: map[string]any{
					"expectedContext": "menu_or_order",
					"pendingDish":     dish,
				},
			}
		}
		return disambiguationResult(outcome.Candidates, dish)

	default: // AddItem
		details := disambig.ParseOrderDetails(t.Text)
		return addResolvedItems(t, []resolvedLine{{candidate: outcome.Match, qty: details.Quantity}}, currentID, nil)
	}
}

// orderSourceText picks the text the order parser should read: the
// extracted dish when NLU isolated one the raw utterance doesn't contain,
// else the raw utterance.
func orderSourceText(t Turn) string {
	if t.Entities.Dish != "" && !strings.Contains(lexicon.Normalize(t.Text), lexicon.Normalize(t.Entities.Dish)) {
		return t.Entities.Dish
	}
	return t.Text
}

type resolvedLine struct {
	candidate disambig.Candidate
	qty       int
	// reqPrice is the price the user was quoted, when the parsed order
	// carried one; zero means no quote and skips the price-drift check.
	reqPrice float64
}

// orderMultiple resolves every parsed item independently. Items resolving
// to a restaurant other than the rest trigger restaurant disambiguation;
// unresolvable names are collected and reported without dropping the turn.
func orderMultiple(deps Deps, t Turn, items []models.OrderItemEntity, currentID string) DomainResult {
	var lines []resolvedLine
	var unknown []string

	for _, item := range items {
		out := disambig.Resolve(t.Ctx, deps.Repo, deps.Catalog.All(), currentID, item.Name)
		switch out.Kind {
		case disambig.AddItem:
			lines = append(lines, resolvedLine{candidate: out.Match, qty: item.Qty, reqPrice: item.Price})
		case disambig.DisambiguationRequired:
			return disambiguationResult(out.Candidates, item.Name)
		default:
			unknown = append(unknown, item.Name)
		}
	}

	if len(lines) == 0 {
		return DomainResult{
			Reply:        fmt.Sprintf("Nie znalazłam pozycji „%s”. Możesz to inaczej powiedzieć?", strings.Join(unknown, ", ")),
			Intent:       "create_order",
			UnknownItems: unknown,
		}
	}

	anchor := lines[0].candidate.RestaurantID
	for _, l := range lines[1:] {
		if l.candidate.RestaurantID != anchor {
			// The items span restaurants; a single order can't hold them,
			// so ask which restaurant the user means.
			seen := map[string]bool{}
			var views []models.RestaurantView
			for _, c := range lines {
				if !seen[c.candidate.RestaurantID] {
					seen[c.candidate.RestaurantID] = true
					views = append(views, models.RestaurantView{ID: c.candidate.RestaurantID, Name: c.candidate.RestaurantName, Index: len(views) + 1})
				}
			}
			return DomainResult{
				Intent:             "create_order",
				Restaurants:        views,
				NeedsClarification: true,
				ContextUpdates: map[string]any{
					"expectedContext":       "choose_restaurant",
					"pendingDish":           t.Text,
					"last_restaurants_list": views,
				},
			}
		}
	}

	return addResolvedItems(t, lines, currentID, unknown)
}

// addResolvedItems validates each resolved line, merges it into the
// pending order and produces the confirmation reply.
func addResolvedItems(t Turn, lines []resolvedLine, currentID string, unknown []string) DomainResult {
	restaurantID := lines[0].candidate.RestaurantID
	restaurantName := lines[0].candidate.RestaurantName

	warning := ""
	if currentID != "" && restaurantID != currentID {
		warning = fmt.Sprintf("Zmieniam restaurację na %s. ", restaurantName)
	}

	pending := t.PendingOrder
	var added []string
	var warnings []string
	for _, line := range lines {
		validated := orders.ValidateItemBeforeAdd(line.candidate.Item, line.qty, line.reqPrice)
		if validated.Err != nil {
			return DomainResult{
				Reply:  fmt.Sprintf("Nie mogę dodać %s: maksymalna ilość to 50 sztuk.", line.candidate.Item.Name),
				Intent: "create_order",
			}
		}
		item := models.CartItem{
			ID:    validated.Item.ID,
			Name:  validated.Item.Name,
			Price: validated.Item.PriceFloat(),
			Qty:   validated.Qty,
		}
		pending = &models.PendingOrder{
			RestaurantID:   restaurantID,
			RestaurantName: restaurantName,
			Items:          mergePendingItems(pending, restaurantID, item),
		}
		added = append(added, itemLabel(validated.Item, validated.Qty))
		for _, w := range validated.Warnings {
			warnings = append(warnings, w.Message)
		}
	}

	total := 0.0
	for _, it := range pending.Items {
		total += it.Price * float64(it.Qty)
	}
	pending.Total = fmt.Sprintf("%.2f", total)

	reply := fmt.Sprintf("%sDodałam %s. Razem %.2f zł. Potwierdzasz?", warning, strings.Join(added, ", "), total)
	if len(warnings) > 0 {
		reply += fmt.Sprintf(" Uwaga: %s.", strings.Join(warnings, "; "))
	}
	if len(unknown) > 0 {
		reply += fmt.Sprintf(" Nie znalazłam: %s.", strings.Join(unknown, ", "))
	}

	return DomainResult{
		Intent: "create_order",
		Reply:  reply,
		ContextUpdates: map[string]any{
			"pendingOrder":      pending,
			"expectedContext":   "confirm_order",
			"currentRestaurant": &models.RestaurantRef{ID: restaurantID, Name: restaurantName},
		},
	}
}

func itemLabel(item catalog.MenuItemRow, qty int) string {
	if qty > 1 {
		return fmt.Sprintf("%d x %s", qty, item.Name)
	}
	return item.Name
}

// disambiguationResult builds the cross-restaurant clarification outcome:
// candidates grouped by restaurant, the list persisted so the next turn's
// pick resolves positionally, and the dish remembered across the sub-dialog.
func disambiguationResult(candidates []disambig.Candidate, dish string) DomainResult {
	seen := map[string]bool{}
	var views []models.RestaurantView
	for _, c := range candidates {
		if seen[c.RestaurantID] {
			continue
		}
		seen[c.RestaurantID] = true
		views = append(views, models.RestaurantView{ID: c.RestaurantID, Name: c.RestaurantName, Index: len(views) + 1})
	}
	return DomainResult{
		Intent:             "create_order",
		Restaurants:        views,
		NeedsClarification: true,
		ContextUpdates: map[string]any{
			"expectedContext":       "choose_restaurant",
			"pendingDish":           dish,
			"last_restaurants_list": views,
		},
	}
}

// clarifyWithinRestaurant reports whether every candidate lives in the same
// restaurant and, if so, groups the variants for the CLARIFY_ITEMS surface.
func clarifyWithinRestaurant(candidates []disambig.Candidate) ([]render.ClarifyBase, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	restaurantID := candidates[0].RestaurantID
	for _, c := range candidates[1:] {
		if c.RestaurantID != restaurantID {
			return nil, false
		}
	}

	byBase := map[string]*render.ClarifyBase{}
	var order []string
	for _, c := range candidates {
		base := baseName(c.Item)
		if byBase[base] == nil {
			byBase[base] = &render.ClarifyBase{Name: base}
			order = append(order, base)
		}
		label := c.Item.Size
		if label == "" {
			label = c.Item.Name
		}
		byBase[base].Variants = append(byBase[base].Variants, render.ClarifyVariant{Label: label, Price: c.Item.PriceFloat()})
	}

	bases := make([]render.ClarifyBase, 0, len(order))
	for _, name := range order {
		bases = append(bases, *byBase[name])
	}
	return bases, true
}

// baseName strips a trailing size word off an item name so "Kebab duży"
// and "Kebab mały" group under "Kebab".
func baseName(item catalog.MenuItemRow) string {
	if item.Size == "" {
		return item.Name
	}
	norm := lexicon.Normalize(item.Size)
	tokens := strings.Fields(item.Name)
	if len(tokens) > 1 && lexicon.Normalize(tokens[len(tokens)-1]) == norm {
		return strings.Join(tokens[:len(tokens)-1], " ")
	}
	return item.Name
}

// mergePendingItems appends item to pending's items when it belongs to the
// same restaurant, else starts a fresh list (restaurant auto-switch).
func mergePendingItems(pending *models.PendingOrder, restaurantID string, item models.CartItem) []models.CartItem {
	if pending == nil || pending.RestaurantID != restaurantID {
		return []models.CartItem{item}
	}
	for i, existing := range pending.Items {
		if existing.ID == item.ID {
			items := append([]models.CartItem{}, pending.Items...)
			items[i].Qty += item.Qty
			return items
		}
	}
	return append(append([]models.CartItem{}, pending.Items...), item)
}
