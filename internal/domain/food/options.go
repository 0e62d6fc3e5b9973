package food

import "fmt"

// OptionHandler implements show_more_options: it re-surfaces the persisted
// last_restaurants_list verbatim and re-arms select_restaurant.
func OptionHandler(deps Deps, t Turn) DomainResult {
	if len(t.LastRestaurantsList) == 0 {
		return DomainResult{Reply: "Nie mam już listy restauracji do pokazania.", Intent: "show_more_options"}
	}
	reply := "Oto wszystkie opcje."
	if len(t.LastRestaurantsList) == 1 {
		reply = fmt.Sprintf("Została już tylko %s.", t.LastRestaurantsList[0].Name)
	}
	return DomainResult{
		Intent:      "show_more_options",
		Reply:       reply,
		Restaurants: t.LastRestaurantsList,
		ContextUpdates: map[string]any{
			"expectedContext": "select_restaurant",
		},
	}
}
