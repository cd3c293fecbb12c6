package scan

import (
	"fmt"
	"strings"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

// allowedImageTypes are the upload MIME types the pipeline accepts.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// supportedLanguages maps lowercase lookups to canonical language names
// used in prompts.
var supportedLanguages = map[string]string{
	"english":    "English",
	"chinese":    "Chinese",
	"japanese":   "Japanese",
	"korean":     "Korean",
	"spanish":    "Spanish",
	"french":     "French",
	"german":     "German",
	"italian":    "Italian",
	"thai":       "Thai",
	"vietnamese": "Vietnamese",
}

// CanonicalLanguage resolves a user-supplied language to its canonical
// form, or returns false if unsupported.
func CanonicalLanguage(language string) (string, bool) {
	l, ok := supportedLanguages[strings.ToLower(strings.TrimSpace(language))]
	return l, ok
}

// Intake is a validated upload, ready for prompt construction.
type Intake struct {
	Image    []byte
	MimeType string
	Language string
}

// ValidateIntake checks the upload before any upstream call is attempted.
// All violations are InvalidInput; nothing here has side effects.
func ValidateIntake(image []byte, mimeType, language string, maxBytes int64) (*Intake, error) {
	if len(image) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "image file is empty")
	}
	if int64(len(image)) > maxBytes {
		return nil, apperr.New(apperr.InvalidInput,
			fmt.Sprintf("image exceeds maximum size of %d bytes", maxBytes))
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !allowedImageTypes[mimeType] {
		return nil, apperr.New(apperr.InvalidInput, "unsupported image type: "+mimeType)
	}
	lang, ok := CanonicalLanguage(language)
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "unsupported language: "+language)
	}
	return &Intake{Image: image, MimeType: mimeType, Language: lang}, nil
}
