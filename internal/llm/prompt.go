package llm

import "fmt"

// BuildScanPrompt builds the deterministic instruction set for menu
// extraction. The schema contract is restated verbatim to maximize
// extraction fidelity, but callers must still validate the output.
func BuildScanPrompt(language string) string {
	return fmt.Sprintf(`You are a restaurant menu extraction engine.

You are given a photograph of a physical restaurant menu.

Your task:
- Extract the full menu into STRICT JSON.
- Write every text field (names, descriptions, menu type) in %s.
- Output MUST be valid JSON.
- Output MUST start with { and end with }.
- Output MUST contain ONLY JSON.
- NO explanations.
- NO markdown.
- NO comments.
- NO extra text.

Required JSON schema:
{
  "restaurantName": "string (empty if not visible)",
  "menuType": "string, e.g. breakfast, lunch, dinner, drinks",
  "categories": [
    {
      "name": "string",
      "items": [
        {
          "name": "string",
          "description": "string (empty if none)",
          "price": "string exactly as printed, e.g. $8.99 or Market Price",
          "attributes": ["string, e.g. spicy, vegetarian"],
          "allergens": ["string, e.g. peanuts, dairy"],
          "flavorProfile": "string (empty if unclear)",
          "texture": "string (empty if unclear)"
        }
      ]
    }
  ]
}

Keep items in the order they appear on the menu.
If a price is unreadable, copy whatever text is printed for it.`, language)
}

// BuildTranslationPrompt builds a translation-only prompt over an already
// extracted menu, serialized as JSON. Structural fields must survive
// untouched; only free-text fields change language.
func BuildTranslationPrompt(menuJSON, language string) string {
	return fmt.Sprintf(`You are a menu translation engine.

You are given a restaurant menu as JSON.

Your task:
- Translate into %s ONLY these fields: category "name", item "name",
  item "description", item "flavorProfile", item "texture", and "menuType".
- Do NOT change "id" values.
- Do NOT change "price" values.
- Do NOT add, remove, or reorder categories or items.
- Keep "restaurantName" as it is.
- Output MUST be valid JSON with the exact same structure.
- Output MUST contain ONLY JSON. NO markdown. NO extra text.

Menu JSON:
%s`, language, menuJSON)
}

// BuildDishImagePrompt builds the image-generation prompt for one dish.
func BuildDishImagePrompt(dishName, description string) string {
	p := fmt.Sprintf("A professional food photograph of %s", dishName)
	if description != "" {
		p += ", described as: " + description
	}
	return p + ". Appetizing presentation on a restaurant plate, natural lighting, no text or watermarks."
}
