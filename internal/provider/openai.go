package provider

import (
	"context"
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/openai"
)

// Completer is the subset of the OpenAI client the adapter uses.
type Completer interface {
	Complete(ctx context.Context, model, prompt string, maxTokens int) (*openai.Result, error)
}

// OpenAI adapts the OpenAI client to the Provider contract.
type OpenAI struct {
	client Completer
}

// NewOpenAI wraps an OpenAI client.
func NewOpenAI(client Completer) *OpenAI {
	return &OpenAI{client: client}
}

func (o *OpenAI) Execute(ctx context.Context, modelID, prompt string, maxTokens int) (*Response, error) {
	res, err := o.client.Complete(ctx, modelID, prompt, maxTokens)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return &Response{
		Text:          res.Text,
		TokensUsed:    res.TokensUsed,
		WebSearchUsed: res.WebSearchUsed,
		ActualModel:   res.ActualModel,
		Raw:           res.Raw,
	}, nil
}

func mapOpenAIError(err error) error {
	if errors.Is(err, openai.ErrNoAPIKey) {
		return missingCredential(domain.ProviderOpenAI)
	}
	if errors.Is(err, openai.ErrNoChoices) {
		return domain.Wrap(domain.ErrProviderMalformed, err)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return domain.Wrap(domain.ErrProviderFailed, &HTTPError{
			Provider: domain.ProviderOpenAI,
			Status:   apiErr.HTTPStatusCode,
			Body:     apiErr.Message,
		})
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return domain.Wrap(domain.ErrProviderFailed, &HTTPError{
			Provider: domain.ProviderOpenAI,
			Status:   reqErr.HTTPStatusCode,
			Body:     string(reqErr.Body),
		})
	}
	return err
}
