package scan

import (
	"context"
	"errors"
	"log"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
	"github.com/Chenxue3/restaurant-sub001/internal/llm"
	"github.com/Chenxue3/restaurant-sub001/internal/menu"
)

// Service runs the synchronous scan pipeline:
// intake -> prompt -> extraction call -> validate/repair.
type Service struct {
	vision         llm.VisionModel
	maxUploadBytes int64
}

func NewService(vision llm.VisionModel, maxUploadBytes int64) *Service {
	return &Service{vision: vision, maxUploadBytes: maxUploadBytes}
}

// Scan validates the upload, asks the multimodal model to extract the
// menu, and parses the untrusted response into the canonical model.
// Each stage short-circuits with a typed error.
func (s *Service) Scan(ctx context.Context, image []byte, mimeType, language string) (*menu.ExtractedMenu, error) {
	intake, err := ValidateIntake(image, mimeType, language, s.maxUploadBytes)
	if err != nil {
		return nil, err
	}

	prompt := llm.BuildScanPrompt(intake.Language)

	raw, err := s.vision.GenerateFromImage(ctx, prompt, intake.Image, intake.MimeType)
	if err != nil {
		return nil, err
	}

	m, err := menu.ParseExtraction(raw)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Raw != "" {
			// Raw model output stays in the logs, never in the response.
			log.Printf("menu extraction unparsable, raw_length=%d raw=%q", len(ae.Raw), truncate(ae.Raw, 500))
		}
		return nil, err
	}
	return m, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
