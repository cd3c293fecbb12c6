package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

const openAIImagesURL = "https://api.openai.com/v1/images/generations"

// OpenAIImageClient generates illustrative dish images. Returned URLs are
// short-lived; the dish image service re-hosts them before caching.
type OpenAIImageClient struct {
	apiKey string
	model  string
	policy *Policy
	client *http.Client
}

func NewOpenAIImageClient(apiKey, model string, policy *Policy) *OpenAIImageClient {
	return &OpenAIImageClient{
		apiKey: apiKey,
		model:  model,
		policy: policy,
		client: &http.Client{},
	}
}

func (o *OpenAIImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	})
	if err != nil {
		return "", err
	}

	var url string
	err = o.policy.run(ctx, "openai images", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIImagesURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return classifyStatus("openai images", resp.StatusCode, raw)
		}

		var result struct {
			Data []struct {
				URL string `json:"url"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return fmt.Errorf("decoding openai response: %w", err)
		}
		if len(result.Data) == 0 || result.Data[0].URL == "" {
			return apperr.New(apperr.UpstreamTransient, "empty openai image response")
		}

		url = result.Data[0].URL
		return nil
	})
	return url, err
}
