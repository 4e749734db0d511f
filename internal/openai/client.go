package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultFallbackModel answers on the Responses path when the requested model yields nothing.
	DefaultFallbackModel = "gpt-4.1"

	chatTemperature = 0.7
	webSearchBeta   = "web-search-preview=control"
	webSearchCall   = "web_search_call"
)

// modernPrefixes selects models served through the Responses endpoint.
var modernPrefixes = []string{"gpt-5", "gpt-4.1", "o4"}

var reasoningPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

var (
	// ErrNoAPIKey is returned when the client has no API key
	ErrNoAPIKey = errors.New("openai api key not configured")
	// ErrEmptyResponse is returned when the Responses endpoint produced no text
	ErrEmptyResponse = errors.New("openai response has no content")
	// ErrNoChoices is returned when chat completions returned no choice
	ErrNoChoices = errors.New("openai chat completion has no choices")
)

// ChatAPI defines the chat completion call the client depends on
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures a Client.
type Config struct {
	APIKey        string
	BaseURL       string
	WebSearch     bool
	FallbackModel string
	HTTPClient    *http.Client
}

// Result is the normalized answer of one OpenAI call.
type Result struct {
	Text          string
	TokensUsed    int
	WebSearchUsed bool
	ActualModel   string
	Raw           json.RawMessage
}

// Client talks to OpenAI through the Responses endpoint and chat completions.
type Client struct {
	chat      ChatAPI
	responses responses.ResponseService
	apiKey    string
	webSearch bool
	fallback  string
	logger    *zap.Logger
}

// NewClient creates a client. The Responses path goes through openai-go and
// the chat path through go-openai, both with the same base URL and HTTP client.
// SDK retries are off since Complete already falls back across models.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = DefaultFallbackModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = baseURL
	oc.HTTPClient = httpClient

	rs := responses.NewResponseService(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithHeader("OpenAI-Beta", webSearchBeta),
		option.WithMaxRetries(0),
	)

	return &Client{
		chat:      openai.NewClientWithConfig(oc),
		responses: rs,
		apiKey:    cfg.APIKey,
		webSearch: cfg.WebSearch,
		fallback:  fallback,
		logger:    logger,
	}
}

// PrefersResponses reports whether a model goes through the Responses endpoint first.
func (c *Client) PrefersResponses(model string) bool {
	if c.webSearch {
		return true
	}
	for _, p := range modernPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// Complete answers prompt with model. Modern models and web search try the
// Responses endpoint, then the fallback model, then chat completions.
func (c *Client) Complete(ctx context.Context, model, prompt string, maxTokens int) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if c.PrefersResponses(model) {
		for _, candidate := range []string{model, c.fallback} {
			res, err := c.respond(ctx, candidate, prompt, maxTokens)
			if err == nil {
				return res, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Debug("responses path yielded nothing",
				zap.String("model", candidate),
				zap.Error(err),
			)
		}
	}

	return c.complete(ctx, model, prompt, maxTokens)
}

func (c *Client) respond(ctx context.Context, model, prompt string, maxTokens int) (*Result, error) {
	params := responses.ResponseNewParams{
		Model:           model,
		Input:           responses.ResponseNewParamsInputUnion{OfString: param.NewOpt(prompt)},
		MaxOutputTokens: param.NewOpt(int64(maxTokens)),
		ToolChoice: responses.ResponseNewParamsToolChoiceUnion{
			OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptionsAuto),
		},
	}
	if c.webSearch {
		params.Tools = []responses.ToolUnionParam{{
			OfWebSearchPreview: &responses.WebSearchPreviewToolParam{
				Type: responses.WebSearchPreviewToolTypeWebSearchPreview,
			},
		}}
		params.ToolChoice = responses.ResponseNewParamsToolChoiceUnion{
			OfHostedTool: &responses.ToolChoiceTypesParam{
				Type: responses.ToolChoiceTypesTypeWebSearchPreview,
			},
		}
	}

	resp, err := c.responses.New(ctx, params)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	return &Result{
		Text:          text,
		TokensUsed:    int(resp.Usage.TotalTokens),
		WebSearchUsed: searched(resp),
		ActualModel:   model,
		Raw:           json.RawMessage(resp.RawJSON()),
	}, nil
}

// searched reports whether the model actually ran a web search call.
func searched(resp *responses.Response) bool {
	for _, item := range resp.Output {
		if item.Type == webSearchCall {
			return true
		}
	}
	return false
}

func (c *Client) complete(ctx context.Context, model, prompt string, maxTokens int) (*Result, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: chatTemperature,
	}
	// Reasoning models reject max_tokens and custom temperatures.
	if isReasoningModel(model) {
		req.MaxTokens = 0
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	}

	resp, err := c.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		raw = nil
	}

	return &Result{
		Text:        resp.Choices[0].Message.Content,
		TokensUsed:  resp.Usage.TotalTokens,
		ActualModel: model,
		Raw:         raw,
	}, nil
}

func isReasoningModel(model string) bool {
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
