package domain

import (
	"fmt"
	"strings"
)

// Provider identifies an AI provider family.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderMistral   Provider = "mistral"
)

// AllProviders lists every provider the gateway must serve.
var AllProviders = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderMistral}

// IsValid returns true if the provider is a known value
func (p Provider) IsValid() bool {
	for _, known := range AllProviders {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProvider accepts any casing ("OPENAI", "OpenAI").
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", NewDomainErrorWithCause(ErrCodeValidation, "invalid provider", fmt.Errorf("%q", s))
	}
	return p, nil
}

const (
	DefaultModelMaxTokens  = 4096
	DefaultCostPer1KTokens = 0.03
)

// AIModel is a provider model that prompts can be executed against.
type AIModel struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Provider        Provider `json:"provider"`
	ModelIdentifier string   `json:"model_identifier"`
	MaxTokens       int      `json:"max_tokens"`
	CostPer1KTokens float64  `json:"cost_per_1k_tokens"`
	IsActive        bool     `json:"is_active"`
}

// Cost estimates the USD cost of a completion.
func (m *AIModel) Cost(tokensUsed int) float64 {
	if tokensUsed <= 0 {
		return 0
	}
	return float64(tokensUsed) / 1000 * m.CostPer1KTokens
}

// EffectiveMaxTokens clamps a requested limit to the model limit. Zero or
// negative requests fall back to the model limit.
func (m *AIModel) EffectiveMaxTokens(requested int) int {
	limit := m.MaxTokens
	if limit <= 0 {
		limit = DefaultModelMaxTokens
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// ValidateAIModel validates an AIModel instance
func ValidateAIModel(m *AIModel) error {
	if m == nil {
		return fmt.Errorf("ai model cannot be nil")
	}
	if m.ID == "" {
		return fmt.Errorf("ai model ID is required")
	}
	if m.Name == "" {
		return fmt.Errorf("ai model Name is required")
	}
	if !m.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if m.ModelIdentifier == "" {
		return fmt.Errorf("ai model ModelIdentifier is required")
	}
	if m.MaxTokens < 0 {
		return fmt.Errorf("ai model MaxTokens cannot be negative")
	}
	if m.CostPer1KTokens < 0 {
		return fmt.Errorf("ai model CostPer1KTokens cannot be negative")
	}
	return nil
}
