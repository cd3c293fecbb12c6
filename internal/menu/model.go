package menu

// ExtractedMenu is the validated, normalized menu produced by the scan
// pipeline. Immutable once returned; owned by the calling request.
type ExtractedMenu struct {
	RestaurantName string         `json:"restaurantName,omitempty"`
	MenuType       string         `json:"menuType"`
	Categories     []MenuCategory `json:"categories"`
}

// MenuCategory groups items under a name unique (case-insensitively)
// within one menu. Item order is preserved from model output through
// translation and response assembly.
type MenuCategory struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// MenuItem is one dish. Price is always a non-empty string even when it
// does not parse numerically; price parsing never rejects an item.
type MenuItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         string   `json:"price"`
	Attributes    []string `json:"attributes"`
	Allergens     []string `json:"allergens"`
	FlavorProfile string   `json:"flavorProfile,omitempty"`
	Texture       string   `json:"texture,omitempty"`
}

// ItemCount returns the total number of items across all categories.
func (m *ExtractedMenu) ItemCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Items)
	}
	return n
}

// ItemIDs returns every item id in category/item order.
func (m *ExtractedMenu) ItemIDs() []string {
	ids := make([]string, 0, m.ItemCount())
	for _, c := range m.Categories {
		for _, it := range c.Items {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
