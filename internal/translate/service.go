package translate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
	"github.com/Chenxue3/restaurant-sub001/internal/llm"
	"github.com/Chenxue3/restaurant-sub001/internal/menu"
	"github.com/Chenxue3/restaurant-sub001/internal/scan"
)

// Service re-invokes a text model against an already-extracted menu and
// returns a translated copy with identical item identity and structure.
// Translation is best-effort: no automatic retry, callers fall back to
// the source-language menu on failure.
type Service struct {
	model llm.TextModel
}

func NewService(model llm.TextModel) *Service {
	return &Service{model: model}
}

// Translate produces a new menu with only free-text fields translated.
// Ids and prices are copied from the source after validation, so they
// survive even a sloppy model.
func (s *Service) Translate(ctx context.Context, src *menu.ExtractedMenu, language string) (*menu.ExtractedMenu, error) {
	if src == nil || len(src.Categories) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "menu is required")
	}
	lang, ok := scan.CanonicalLanguage(language)
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "unsupported language: "+language)
	}

	srcJSON, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}

	raw, err := s.model.GenerateText(ctx, llm.BuildTranslationPrompt(string(srcJSON), lang))
	if err != nil {
		return nil, err
	}

	got, err := menu.ParseExtraction(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.TranslationConsistency, "translated menu unreadable", err)
	}

	if err := verifyConsistency(src, got); err != nil {
		return nil, err
	}

	// Pass-through enforcement: structural fields always come from the
	// source, whatever the model returned for them.
	got.RestaurantName = src.RestaurantName
	for ci := range got.Categories {
		for ii := range got.Categories[ci].Items {
			got.Categories[ci].Items[ii].ID = src.Categories[ci].Items[ii].ID
			got.Categories[ci].Items[ii].Price = src.Categories[ci].Items[ii].Price
		}
	}
	return got, nil
}

// verifyConsistency checks that the translated structure matches the
// source category/item shape and carries exactly the same ids in the
// same order. Downstream consumers key UI state off ids, so any
// divergence is a failure, never silently accepted.
func verifyConsistency(src, got *menu.ExtractedMenu) error {
	if len(got.Categories) != len(src.Categories) {
		return apperr.New(apperr.TranslationConsistency,
			fmt.Sprintf("translation changed category count: %d -> %d", len(src.Categories), len(got.Categories)))
	}
	for ci := range src.Categories {
		srcItems := src.Categories[ci].Items
		gotItems := got.Categories[ci].Items
		if len(gotItems) != len(srcItems) {
			return apperr.New(apperr.TranslationConsistency,
				fmt.Sprintf("translation changed item count in category %d: %d -> %d", ci, len(srcItems), len(gotItems)))
		}
		for ii := range srcItems {
			if gotItems[ii].ID != srcItems[ii].ID {
				return apperr.New(apperr.TranslationConsistency,
					fmt.Sprintf("translation changed item id %q to %q", srcItems[ii].ID, gotItems[ii].ID))
			}
		}
	}
	return nil
}
