// Package icm implements C4: the Intent Capability Map, a declarative
// registry of every intent's FSM requirements, allowed transitions,
// cart-mutation policy and fallback.
package icm

import "reflect"

// Condition checks one key of the turn's evaluation context (built by the
// orchestrator from session fields plus the current turn's entities).
// Want is one of "any" (present and truthy/non-nil), "non_empty" (present
// and, for strings/slices/maps, non-empty), or "" paired with Equals for an
// exact-value match.
type Condition struct {
	Key    string
	Want   string
	Equals string
}

// Requirement is a conjunction of Conditions (All) optionally combined with
// a top-level OR of sub-requirements.
type Requirement struct {
	All []Condition
	Or  []Requirement
}

// IsZero reports whether the requirement imposes no constraint at all.
func (r Requirement) IsZero() bool {
	return len(r.All) == 0 && len(r.Or) == 0
}

// Evaluate checks the requirement against a turn context map.
func (r Requirement) Evaluate(ctx map[string]any) bool {
	if len(r.Or) > 0 {
		for _, sub := range r.Or {
			if sub.Evaluate(ctx) {
				return true
			}
		}
		return false
	}
	for _, cond := range r.All {
		if !evaluateCondition(cond, ctx) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond Condition, ctx map[string]any) bool {
	value, present := ctx[cond.Key]
	switch cond.Want {
	case "any":
		return present && !isZeroValue(value)
	case "non_empty":
		return present && !isEmptyValue(value)
	default:
		if cond.Equals != "" {
			s, ok := value.(string)
			return present && ok && s == cond.Equals
		}
		return present && !isZeroValue(value)
	}
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	}
	// Pointers/slices/maps/interfaces boxed as non-nil `any` still compare
	// unequal to the untyped nil above even when the underlying pointer is
	// nil (e.g. a *models.RestaurantRef(nil) session field); reflect is the
	// only reliable way to see through that.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case int:
		return t == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return isZeroValue(v)
}

// Entry is one row of the Intent Capability Map.
type Entry struct {
	Domain          string
	Required        Requirement
	AllowedTransitions []string
	SetsState       []string
	FallbackIntent  string
	// HardBlockLegacy demotes the intent to its fallback whenever the NLU
	// router resolved it via the classic catalog-match tier.
	HardBlockLegacy bool
	// MutatesCart is true only for confirm_order.
	MutatesCart bool
}

// Map is the full registry, keyed by intent name.
type Map map[string]Entry

// Get returns the entry for an intent, or a zero entry (no requirement,
// system domain) for unregistered intents such as the nav-guard's
// synthetic DIALOG_* intents.
func (m Map) Get(intent string) Entry {
	if e, ok := m[intent]; ok {
		return e
	}
	return Entry{Domain: "system"}
}

// CheckRequiredState reports whether intent's requirement is satisfied by
// the turn context.
func (m Map) CheckRequiredState(intent string, ctx map[string]any) bool {
	entry := m.Get(intent)
	if entry.Required.IsZero() {
		return true
	}
	return entry.Required.Evaluate(ctx)
}

// Default builds the standard intent registry.
func Default() Map {
	return Map{
		"find_nearby": {
			Domain:   "food",
			Required: Requirement{},
		},
		"menu_request": {
			Domain:         "food",
			Required:       Requirement{All: []Condition{{Key: "currentRestaurant", Want: "any"}}},
			FallbackIntent: "find_nearby",
		},
		"create_order": {
			Domain: "food",
			Required: Requirement{Or: []Requirement{
				{All: []Condition{{Key: "currentRestaurant", Want: "any"}}},
				{All: []Condition{{Key: "lastRestaurant", Want: "any"}}},
			}},
			FallbackIntent:  "find_nearby",
			HardBlockLegacy: true,
		},
		"confirm_order": {
			Domain: "ordering",
			Required: Requirement{All: []Condition{
				{Key: "pendingOrder", Want: "non_empty"},
				{Key: "expectedContext", Want: "", Equals: "confirm_order"},
			}},
			FallbackIntent: "", // ignore on miss
			MutatesCart:    true,
		},
		"select_restaurant": {
			Domain:         "food",
			Required:       Requirement{All: []Condition{{Key: "last_restaurants_list", Want: "non_empty"}}},
			FallbackIntent: "find_nearby",
		},
		"confirm_add_to_cart": {
			Domain: "food",
			Required: Requirement{Or: []Requirement{
				{All: []Condition{{Key: "pendingDish", Want: "any"}}},
				{All: []Condition{{Key: "entities.dish", Want: "any"}}},
			}},
			FallbackIntent: "find_nearby",
		},
		"cancel_order": {
			Domain:   "ordering",
			Required: Requirement{},
		},
		"show_more_options": {
			Domain:         "food",
			Required:       Requirement{All: []Condition{{Key: "last_restaurants_list", Want: "non_empty"}}},
			FallbackIntent: "find_nearby",
		},
		"choose_restaurant": {
			Domain:   "food",
			Required: Requirement{},
		},
		"confirm_restaurant": {
			Domain:   "food",
			Required: Requirement{},
		},
		"recommend": {
			Domain:   "food",
			Required: Requirement{},
		},
		"new_order": {
			Domain:   "system",
			Required: Requirement{},
		},
		"start_over": {
			Domain:   "system",
			Required: Requirement{},
		},
		"help": {
			Domain:   "system",
			Required: Requirement{},
		},
		"unknown": {
			Domain:   "system",
			Required: Requirement{},
		},
	}
}
