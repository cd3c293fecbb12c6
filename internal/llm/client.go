package llm

import "context"

// VisionModel is a multimodal model call: image plus instructions in,
// raw text out. The response is untrusted; validation is the caller's job.
type VisionModel interface {
	GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// TextModel is a text-only model call used for translation.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageModel generates an illustrative image and returns its URL.
type ImageModel interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
