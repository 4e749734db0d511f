package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/openai"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, model, prompt string, maxTokens int) (*openai.Result, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openai.Result), args.Error(1)
}

func TestOpenAI_Execute_Success(t *testing.T) {
	c := new(MockCompleter)
	c.On("Complete", mock.Anything, "gpt-5", "q", 200).Return(&openai.Result{
		Text:          "a",
		TokensUsed:    10,
		WebSearchUsed: true,
		ActualModel:   "gpt-4.1",
	}, nil)

	resp, err := NewOpenAI(c).Execute(context.Background(), "gpt-5", "q", 200)

	require.NoError(t, err)
	assert.Equal(t, "a", resp.Text)
	assert.True(t, resp.WebSearchUsed)
	assert.Equal(t, "gpt-4.1", resp.ActualModel)
}

func TestOpenAI_Execute_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		sentinel   *domain.DomainError
		wantStatus int
	}{
		{"missing key", openai.ErrNoAPIKey, domain.ErrMissingCredential, 0},
		{"no choices", openai.ErrNoChoices, domain.ErrProviderMalformed, 0},
		{"api error", &goopenai.APIError{HTTPStatusCode: 429, Message: "slow down"}, domain.ErrProviderFailed, 429},
		{"request error", fmt.Errorf("wrapped: %w", &goopenai.RequestError{HTTPStatusCode: 502, Body: []byte("bad gateway")}), domain.ErrProviderFailed, 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(MockCompleter)
			c.On("Complete", mock.Anything, "gpt-4o", "q", 10).Return(nil, tt.err)

			_, err := NewOpenAI(c).Execute(context.Background(), "gpt-4o", "q", 10)

			assert.ErrorIs(t, err, tt.sentinel)
			if tt.wantStatus != 0 {
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, tt.wantStatus, httpErr.Status)
			}
		})
	}
}

func TestOpenAI_Execute_OtherErrorsPassThrough(t *testing.T) {
	c := new(MockCompleter)
	c.On("Complete", mock.Anything, "gpt-4o", "q", 10).Return(nil, context.DeadlineExceeded)

	_, err := NewOpenAI(c).Execute(context.Background(), "gpt-4o", "q", 10)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.ErrCodeProviderTimeout, domain.CodeOf(classify(err)))
}
