package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cloo-solutions/geotrack/internal/config"
)

func TestProviderSettings(t *testing.T) {
	cfg := &config.Config{
		OpenAIAPIKey:        "sk-test",
		OpenAIWebSearch:     true,
		OpenAIFallbackModel: "gpt-4.1",
		AnthropicAPIKey:     "ak-test",
		AnthropicVersion:    "2023-06-01",
		GoogleAPIKey:        "g-test",
		GoogleBaseURL:       "http://localhost:9999",
		RequestTimeout:      15 * time.Second,
	}

	s := providerSettings(cfg)

	assert.Equal(t, "sk-test", s.OpenAI.APIKey)
	assert.True(t, s.OpenAI.WebSearch)
	assert.Equal(t, "gpt-4.1", s.OpenAI.FallbackModel)
	assert.Equal(t, "ak-test", s.Anthropic.APIKey)
	assert.Equal(t, "2023-06-01", s.Anthropic.Version)
	assert.Equal(t, "http://localhost:9999", s.Google.BaseURL)
	assert.Equal(t, 15*time.Second, s.Timeout)
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := ServeCmd()

	port := cmd.Flags().Lookup("port")
	assert.NotNil(t, port)
	assert.Equal(t, "8080", port.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("no-migrate"))
	assert.Equal(t, "file://migrations", cmd.Flags().Lookup("migrations").DefValue)
}
