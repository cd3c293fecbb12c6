package menu

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

// rawMenu mirrors the JSON shape the extraction prompt asks the model for.
// Field types are lenient on purpose: models return prices as numbers or
// strings and occasionally collapse list fields into a single string.
type rawMenu struct {
	RestaurantName string        `json:"restaurantName"`
	MenuType       string        `json:"menuType"`
	Categories     []rawCategory `json:"categories"`
}

type rawCategory struct {
	Name  string    `json:"name"`
	Items []rawItem `json:"items"`
}

type rawItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Price         flexString `json:"price"`
	Attributes    flexList   `json:"attributes"`
	Allergens     flexList   `json:"allergens"`
	FlavorProfile string     `json:"flavorProfile"`
	Texture       string     `json:"texture"`
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	// null or anything stranger: leave empty rather than fail the item
	*f = ""
	return nil
}

// flexList accepts a JSON array of strings, a single string
// (split on commas), or null.
type flexList []string

func (f *flexList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*f = nil
			return nil
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*f = out
		return nil
	}
	*f = nil
	return nil
}

// ParseExtraction turns a raw model response into a validated ExtractedMenu.
// Step 1 is a strict parse of the first structured block in the response.
// Step 2, on failure, applies a bounded repair pass and re-parses once.
// Step 3 normalizes fields so the result satisfies every model invariant:
// deterministic item ids, non-failing price handling, unique category names.
// Repeated calls with the same input produce identical output.
func ParseExtraction(raw string) (*ExtractedMenu, error) {
	block := extractJSONBlock(raw)
	if block == "" {
		return nil, &apperr.Error{
			Kind: apperr.ExtractionParse,
			Msg:  "could not read menu from image",
			Raw:  raw,
		}
	}

	var rm rawMenu
	if err := json.Unmarshal([]byte(block), &rm); err != nil {
		repaired := repairJSON(block)
		if err2 := json.Unmarshal([]byte(repaired), &rm); err2 != nil {
			return nil, &apperr.Error{
				Kind: apperr.ExtractionParse,
				Msg:  "could not read menu from image",
				Err:  err2,
				Raw:  raw,
			}
		}
	}

	return normalize(&rm), nil
}

// extractJSONBlock returns the first well-formed JSON object in s,
// tolerating surrounding prose and markdown code fences. If the object is
// never closed the unbalanced tail is returned for the repair pass.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// repairJSON applies the bounded normalization rules of the repair pass:
// drop trailing commas, then close any brackets left unbalanced.
func repairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)

	// A response truncated mid-string needs its quote closed before any
	// bracket closers can help.
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	s = strings.TrimSuffix(b.String(), ",")
	b.Reset()
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// normalize applies field-level rules and guarantees the model invariants
// hold on the returned menu.
func normalize(rm *rawMenu) *ExtractedMenu {
	out := &ExtractedMenu{
		RestaurantName: strings.TrimSpace(rm.RestaurantName),
		MenuType:       strings.TrimSpace(rm.MenuType),
		Categories:     make([]MenuCategory, 0, len(rm.Categories)),
	}

	seen := make(map[string]int)
	for ci, rc := range rm.Categories {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			name = fmt.Sprintf("Category %d", ci+1)
		}
		// Duplicate category names get a disambiguating suffix instead
		// of dropping data.
		lower := strings.ToLower(name)
		seen[lower]++
		if n := seen[lower]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
			seen[strings.ToLower(name)]++
		}

		cat := MenuCategory{
			Name:  name,
			Items: make([]MenuItem, 0, len(rc.Items)),
		}
		for ii, ri := range rc.Items {
			item := MenuItem{
				ID:            strings.TrimSpace(ri.ID),
				Name:          strings.TrimSpace(ri.Name),
				Description:   strings.TrimSpace(ri.Description),
				Price:         normalizePrice(string(ri.Price)),
				Attributes:    ri.Attributes,
				Allergens:     ri.Allergens,
				FlavorProfile: strings.TrimSpace(ri.FlavorProfile),
				Texture:       strings.TrimSpace(ri.Texture),
			}
			if item.ID == "" {
				// Derived from position, not randomness, so reprocessing
				// the same raw response assigns identical ids.
				item.ID = fmt.Sprintf("item-%d-%d", ci, ii)
			}
			if item.Attributes == nil {
				item.Attributes = []string{}
			}
			if item.Allergens == nil {
				item.Allergens = []string{}
			}
			cat.Items = append(cat.Items, item)
		}
		out.Categories = append(out.Categories, cat)
	}
	return out
}

var currencyPrice = regexp.MustCompile(`^([$€£¥₹₩])\s*(\d[\d.,]*)$`)

// normalizePrice canonicalizes well-formed "symbol amount" prices and passes
// everything else through as raw text. Price handling never fails an item.
func normalizePrice(p string) string {
	p = strings.TrimSpace(p)
	if m := currencyPrice.FindStringSubmatch(p); m != nil {
		return m[1] + m[2]
	}
	return p
}
