package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient talks to the Gemini generateContent endpoint for both the
// multimodal extraction call and the text-only translation call.
type GeminiClient struct {
	apiKey string
	model  string
	policy *Policy
	client *http.Client
}

func NewGeminiClient(apiKey, model string, policy *Policy) *GeminiClient {
	return &GeminiClient{
		apiKey: apiKey,
		model:  model,
		policy: policy,
		client: &http.Client{},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerateFromImage sends the prompt plus the raw image to the model and
// returns its text response unvalidated. JSON repair is not attempted
// here; that belongs to the menu parser.
func (g *GeminiClient) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return g.generate(ctx, parts)
}

// GenerateText sends a text-only prompt and returns the raw response.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, []geminiPart{{Text: prompt}})
}

func (g *GeminiClient) generate(ctx context.Context, parts []geminiPart) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":     0.2,
			"maxOutputTokens": 8192,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, g.model, g.apiKey)

	var out string
	err = g.policy.run(ctx, "gemini", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return classifyStatus("gemini", resp.StatusCode, raw)
		}

		var result struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return fmt.Errorf("decoding gemini response: %w", err)
		}
		if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
			return apperr.New(apperr.UpstreamTransient, "empty gemini response")
		}

		out = result.Candidates[0].Content.Parts[0].Text
		return nil
	})
	return out, err
}
