package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Execute(ctx context.Context, modelID, prompt string, maxTokens int) (*Response, error) {
	args := m.Called(ctx, modelID, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

func newTestGateway(t *testing.T, openaiAdapter Provider, timeout time.Duration) *Gateway {
	gw, err := NewGateway(map[domain.Provider]Provider{
		domain.ProviderOpenAI:    openaiAdapter,
		domain.ProviderAnthropic: new(MockProvider),
		domain.ProviderGoogle:    new(MockProvider),
		domain.ProviderMistral:   Mistral{},
	}, timeout, zaptest.NewLogger(t))
	require.NoError(t, err)
	return gw
}

func testModel() *domain.AIModel {
	return &domain.AIModel{
		ID:              "m1",
		Name:            "GPT-4o",
		Provider:        domain.ProviderOpenAI,
		ModelIdentifier: "gpt-4o",
		MaxTokens:       1000,
		CostPer1KTokens: 0.01,
		IsActive:        true,
	}
}

func TestNewGateway_RequiresEveryProvider(t *testing.T) {
	_, err := NewGateway(map[domain.Provider]Provider{
		domain.ProviderOpenAI: new(MockProvider),
	}, time.Second, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestNewGateway_RejectsUnknownProvider(t *testing.T) {
	_, err := NewGateway(map[domain.Provider]Provider{
		domain.ProviderOpenAI:     new(MockProvider),
		domain.ProviderAnthropic:  new(MockProvider),
		domain.ProviderGoogle:     new(MockProvider),
		domain.ProviderMistral:    Mistral{},
		domain.Provider("cohere"): new(MockProvider),
	}, time.Second, nil)

	assert.Error(t, err)
}

func TestGateway_Execute_Success(t *testing.T) {
	adapter := new(MockProvider)
	adapter.On("Execute", mock.Anything, "gpt-4o", "hello", 1000).Return(&Response{
		Text:          "answer",
		TokensUsed:    500,
		WebSearchUsed: true,
	}, nil)
	gw := newTestGateway(t, adapter, time.Second)

	c, err := gw.Execute(context.Background(), testModel(), "hello", 5000)

	require.NoError(t, err)
	assert.Equal(t, "answer", c.Text)
	assert.Equal(t, 500, c.TokensUsed)
	assert.InDelta(t, 0.005, c.Cost, 1e-9)
	assert.True(t, c.WebSearchUsed)
	assert.Equal(t, "GPT-4o", c.ModelName)
	assert.Equal(t, "gpt-4o", c.ActualModel)
	assert.GreaterOrEqual(t, c.ProcessingTimeMS, int64(0))
	adapter.AssertExpectations(t)
}

func TestGateway_Execute_ZeroTokensUsesModelLimit(t *testing.T) {
	adapter := new(MockProvider)
	adapter.On("Execute", mock.Anything, "gpt-4o", "hello", 1000).Return(&Response{Text: "ok"}, nil)
	gw := newTestGateway(t, adapter, time.Second)

	c, err := gw.Execute(context.Background(), testModel(), "hello", 0)

	require.NoError(t, err)
	assert.Zero(t, c.Cost)
	adapter.AssertExpectations(t)
}

func TestGateway_Execute_InactiveModel(t *testing.T) {
	gw := newTestGateway(t, new(MockProvider), time.Second)
	model := testModel()
	model.IsActive = false

	_, err := gw.Execute(context.Background(), model, "hello", 0)

	assert.ErrorIs(t, err, domain.ErrModelNotConfigured)
}

func TestGateway_Execute_EmptyPrompt(t *testing.T) {
	gw := newTestGateway(t, new(MockProvider), time.Second)

	_, err := gw.Execute(context.Background(), testModel(), "", 0)

	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
}

func TestGateway_Execute_Timeout(t *testing.T) {
	adapter := new(MockProvider)
	adapter.On("Execute", mock.Anything, "gpt-4o", "hello", 1000).
		Return(nil, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})
	gw := newTestGateway(t, adapter, 20*time.Millisecond)

	_, err := gw.Execute(context.Background(), testModel(), "hello", 0)

	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	assert.Equal(t, domain.ErrCodeProviderTimeout, domain.CodeOf(err))
}

func TestGateway_Execute_HTTPErrorKeepsStatus(t *testing.T) {
	adapter := new(MockProvider)
	adapter.On("Execute", mock.Anything, "gpt-4o", "hello", 1000).Return(nil,
		domain.Wrap(domain.ErrProviderFailed, &HTTPError{Provider: domain.ProviderOpenAI, Status: 500, Body: "oops"}))
	gw := newTestGateway(t, adapter, time.Second)

	_, err := gw.Execute(context.Background(), testModel(), "hello", 0)

	assert.ErrorIs(t, err, domain.ErrProviderFailed)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 500, httpErr.Status)
}

func TestGateway_Execute_PlainErrorBecomesProviderError(t *testing.T) {
	adapter := new(MockProvider)
	adapter.On("Execute", mock.Anything, "gpt-4o", "hello", 1000).Return(nil, errors.New("connection reset"))
	gw := newTestGateway(t, adapter, time.Second)

	_, err := gw.Execute(context.Background(), testModel(), "hello", 0)

	assert.Equal(t, domain.ErrCodeProvider, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGateway_Execute_Mistral(t *testing.T) {
	gw := newTestGateway(t, new(MockProvider), time.Second)
	model := testModel()
	model.Provider = domain.ProviderMistral

	_, err := gw.Execute(context.Background(), model, "hello", 0)

	assert.ErrorIs(t, err, domain.ErrProviderUnsupported)
	assert.Equal(t, domain.ErrCodeConfiguration, domain.CodeOf(err))
}
