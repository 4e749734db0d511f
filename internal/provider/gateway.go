// Package provider exposes AI providers behind one completion contract.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/metrics"
	"github.com/cloo-solutions/geotrack/internal/telemetry"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

// Response is what an adapter returns for one call.
type Response struct {
	Text          string
	TokensUsed    int
	WebSearchUsed bool
	ActualModel   string
	Raw           json.RawMessage
}

// Provider executes a prompt against one provider family.
type Provider interface {
	Execute(ctx context.Context, modelID, prompt string, maxTokens int) (*Response, error)
}

// Gateway dispatches completions to the adapter of the model's provider.
type Gateway struct {
	providers map[domain.Provider]Provider
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGateway requires one adapter per known provider.
func NewGateway(providers map[domain.Provider]Provider, timeout time.Duration, logger *zap.Logger) (*Gateway, error) {
	for _, p := range domain.AllProviders {
		if providers[p] == nil {
			return nil, fmt.Errorf("no adapter registered for provider %q", p)
		}
	}
	for p := range providers {
		if !p.IsValid() {
			return nil, fmt.Errorf("adapter registered for unknown provider %q", p)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{providers: providers, timeout: timeout, logger: logger}, nil
}

// Execute runs prompt on model and returns a normalized completion. The
// requested token limit is clamped to the model limit.
func (g *Gateway) Execute(ctx context.Context, model *domain.AIModel, prompt string, maxTokens int) (*domain.Completion, error) {
	if model == nil || !model.IsActive {
		return nil, domain.ErrModelNotConfigured
	}
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}
	adapter, ok := g.providers[model.Provider]
	if !ok {
		return nil, domain.Wrap(domain.ErrProviderUnsupported, fmt.Errorf("%q", model.Provider))
	}

	effective := model.EffectiveMaxTokens(maxTokens)
	if maxTokens > effective {
		g.logger.Warn("max tokens clamped to model limit",
			zap.String("model", model.Name),
			zap.Int("requested", maxTokens),
			zap.Int("limit", effective),
		)
	}

	ctx, span := telemetry.StartSpan(ctx, "provider.execute", telemetry.SpanAttributes{
		Provider: string(model.Provider),
		Model:    model.ModelIdentifier,
	})
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := adapter.Execute(ctx, model.ModelIdentifier, prompt, effective)
	elapsed := time.Since(start)
	if err != nil {
		err = classify(err)
		metrics.ObserveProvider(string(model.Provider), outcomeOf(err), elapsed, 0)
		span.SetError(err)
		g.logger.Error("provider call failed",
			zap.String("provider", string(model.Provider)),
			zap.String("model", model.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ObserveProvider(string(model.Provider), outcomeOf(nil), elapsed, resp.TokensUsed)
	g.logger.Info("provider call completed",
		zap.String("provider", string(model.Provider)),
		zap.String("model", model.Name),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("elapsed", elapsed),
	)

	actual := resp.ActualModel
	if actual == "" {
		actual = model.ModelIdentifier
	}
	return &domain.Completion{
		Text:             resp.Text,
		TokensUsed:       resp.TokensUsed,
		ProcessingTimeMS: elapsed.Milliseconds(),
		Cost:             model.Cost(resp.TokensUsed),
		WebSearchUsed:    resp.WebSearchUsed,
		ModelName:        model.Name,
		ActualModel:      actual,
		Raw:              resp.Raw,
	}, nil
}
