package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const googleTemperature = 0.7

// GoogleConfig configures the generateContent adapter.
type GoogleConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Google calls Gemini generateContent through the genai SDK.
type Google struct {
	models *genai.Models
}

// NewGoogle builds the adapter. Without an API key the adapter is created
// but every call fails with a missing credential error.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.APIKey == "" {
		return &Google{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Google{models: client.Models}, nil
}

func (g *Google) Execute(ctx context.Context, modelID, prompt string, maxTokens int) (*Response, error) {
	if g.models == nil {
		return nil, missingCredential(domain.ProviderGoogle)
	}

	resp, err := g.models.GenerateContent(ctx, modelID, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr[float32](googleTemperature),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, domain.Wrap(domain.ErrProviderFailed, &HTTPError{
				Provider: domain.ProviderGoogle,
				Status:   apiErr.Code,
				Body:     apiErr.Message,
			})
		}
		return nil, err
	}

	text := resp.Text()
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if tokens == 0 {
		tokens = len(strings.Fields(prompt)) + len(strings.Fields(text))
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		raw = nil
	}
	return &Response{
		Text:        text,
		TokensUsed:  tokens,
		ActualModel: modelID,
		Raw:         raw,
	}, nil
}
