package provider

import (
	"context"
	"errors"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

// Mistral is registered so the provider set stays complete; calls always fail.
type Mistral struct{}

func (Mistral) Execute(context.Context, string, string, int) (*Response, error) {
	return nil, domain.Wrap(domain.ErrProviderUnsupported, errors.New("mistral provider is not implemented"))
}
