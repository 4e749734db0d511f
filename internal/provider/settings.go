package provider

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/openai"
)

// Settings carries credentials and endpoints for every provider.
type Settings struct {
	OpenAI    openai.Config
	Anthropic AnthropicConfig
	Google    GoogleConfig
	Timeout   time.Duration
}

// New builds a Gateway with one adapter per provider. All adapters share
// one HTTP client unless a provider config sets its own.
func New(ctx context.Context, s Settings, logger *zap.Logger) (*Gateway, error) {
	httpClient := &http.Client{}
	if s.OpenAI.HTTPClient == nil {
		s.OpenAI.HTTPClient = httpClient
	}
	if s.Anthropic.HTTPClient == nil {
		s.Anthropic.HTTPClient = httpClient
	}
	if s.Google.HTTPClient == nil {
		s.Google.HTTPClient = httpClient
	}

	google, err := NewGoogle(ctx, s.Google)
	if err != nil {
		return nil, err
	}

	return NewGateway(map[domain.Provider]Provider{
		domain.ProviderOpenAI:    NewOpenAI(openai.NewClient(s.OpenAI, logger)),
		domain.ProviderAnthropic: NewAnthropic(s.Anthropic),
		domain.ProviderGoogle:    google,
		domain.ProviderMistral:   Mistral{},
	}, s.Timeout, logger)
}
