package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicVersion = "2023-06-01"
)

// AnthropicConfig configures the Messages API adapter.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// Anthropic calls the Messages API through the official SDK. Retries are
// disabled; a failed call surfaces immediately.
type Anthropic struct {
	apiKey   string
	messages anthropic.MessageService
}

// NewAnthropic creates the adapter with defaults for empty fields.
func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = DefaultAnthropicVersion
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHeader("anthropic-version", version),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{apiKey: cfg.APIKey, messages: client.Messages}
}

func (a *Anthropic) Execute(ctx context.Context, modelID, prompt string, maxTokens int) (*Response, error) {
	if a.apiKey == "" {
		return nil, missingCredential(domain.ProviderAnthropic)
	}

	msg, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	return &Response{
		Text:        text,
		TokensUsed:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		ActualModel: modelID,
		Raw:         json.RawMessage(msg.RawJSON()),
	}, nil
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return domain.Wrap(domain.ErrProviderFailed, &HTTPError{
			Provider: domain.ProviderAnthropic,
			Status:   apiErr.StatusCode,
			Body:     apiErr.RawJSON(),
		})
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return malformed("anthropic: %v", err)
	}
	return err
}
