package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedCall struct {
	Path string
	Body map[string]any
	Beta string
	Auth string
}

type fakeOpenAI struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses func(model string) (int, string)
	chat      func(model string) (int, string)
}

func (f *fakeOpenAI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{
			Path: r.URL.Path,
			Body: body,
			Beta: r.Header.Get("OpenAI-Beta"),
			Auth: r.Header.Get("Authorization"),
		})
		f.mu.Unlock()

		model, _ := body["model"].(string)
		status, payload := http.StatusNotFound, `{"error":{"message":"not found"}}`
		switch r.URL.Path {
		case "/v1/responses":
			if f.responses != nil {
				status, payload = f.responses(model)
			}
		case "/v1/chat/completions":
			if f.chat != nil {
				status, payload = f.chat(model)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}
}

func (f *fakeOpenAI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Path)
	}
	return out
}

func newTestClient(t *testing.T, fake *fakeOpenAI, webSearch bool) *Client {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1",
		WebSearch:  webSearch,
		HTTPClient: srv.Client(),
	}, zaptest.NewLogger(t))
}

const chatOK = `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"chat answer"},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":8,"total_tokens":12}}`

func TestClient_Complete_ChatPathForLegacyModel(t *testing.T) {
	fake := &fakeOpenAI{chat: func(string) (int, string) { return http.StatusOK, chatOK }}
	client := newTestClient(t, fake, false)

	res, err := client.Complete(context.Background(), "gpt-4o-mini", "hello", 256)

	require.NoError(t, err)
	assert.Equal(t, "chat answer", res.Text)
	assert.Equal(t, 12, res.TokensUsed)
	assert.False(t, res.WebSearchUsed)
	assert.Equal(t, "gpt-4o-mini", res.ActualModel)
	assert.NotEmpty(t, res.Raw)
	assert.Equal(t, []string{"/v1/chat/completions"}, fake.paths())

	body := fake.calls[0].Body
	assert.Equal(t, float64(256), body["max_tokens"])
	assert.InDelta(t, 0.7, body["temperature"], 0.0001)
	assert.Equal(t, "Bearer sk-test", fake.calls[0].Auth)
}

func messageOutput(text string) string {
	return `{"type":"message","role":"assistant","content":[{"type":"output_text","text":"` + text + `"}]}`
}

const searchCallOutput = `{"type":"web_search_call","status":"completed"}`

func TestClient_Complete_ResponsesPathForModernModel(t *testing.T) {
	fake := &fakeOpenAI{responses: func(string) (int, string) {
		return http.StatusOK, `{"output":[` + messageOutput("modern answer") + `],"usage":{"total_tokens":33}}`
	}}
	client := newTestClient(t, fake, false)

	res, err := client.Complete(context.Background(), "gpt-5-mini", "hello", 100)

	require.NoError(t, err)
	assert.Equal(t, "modern answer", res.Text)
	assert.Equal(t, 33, res.TokensUsed)
	assert.False(t, res.WebSearchUsed)
	assert.Equal(t, "gpt-5-mini", res.ActualModel)
	assert.Contains(t, string(res.Raw), "modern answer")

	call := fake.calls[0]
	assert.Equal(t, "/v1/responses", call.Path)
	assert.Equal(t, "web-search-preview=control", call.Beta)
	assert.Equal(t, "Bearer sk-test", call.Auth)
	assert.Equal(t, "gpt-5-mini", call.Body["model"])
	assert.Equal(t, "hello", call.Body["input"])
	assert.Equal(t, float64(100), call.Body["max_output_tokens"])
	assert.Equal(t, "auto", call.Body["tool_choice"])
	assert.Empty(t, call.Body["tools"])
}

func TestClient_Complete_WebSearchToolPayload(t *testing.T) {
	fake := &fakeOpenAI{responses: func(string) (int, string) {
		return http.StatusOK, `{"output":[` + searchCallOutput + `,` + messageOutput("searched") + `]}`
	}}
	client := newTestClient(t, fake, true)

	res, err := client.Complete(context.Background(), "gpt-4o", "hello", 50)

	require.NoError(t, err)
	assert.Equal(t, "searched", res.Text)
	body := fake.calls[0].Body
	assert.Equal(t, []any{map[string]any{"type": "web_search_preview"}}, body["tools"])
	assert.Equal(t, map[string]any{"type": "web_search_preview"}, body["tool_choice"])
}

func TestClient_Complete_WebSearchUsedReflectsSearchCalls(t *testing.T) {
	tests := []struct {
		name      string
		webSearch bool
		output    string
		want      bool
	}{
		{"search enabled and performed", true, searchCallOutput + `,` + messageOutput("a"), true},
		{"search enabled but skipped by the model", true, messageOutput("a"), false},
		{"search disabled", false, messageOutput("a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOpenAI{responses: func(string) (int, string) {
				return http.StatusOK, `{"output":[` + tt.output + `]}`
			}}
			client := newTestClient(t, fake, tt.webSearch)

			res, err := client.Complete(context.Background(), "gpt-5", "q", 10)

			require.NoError(t, err)
			assert.Equal(t, tt.want, res.WebSearchUsed)
		})
	}
}

func TestClient_Complete_ResponsesOutputContentConcatenated(t *testing.T) {
	fake := &fakeOpenAI{responses: func(string) (int, string) {
		return http.StatusOK, `{"output":[` + searchCallOutput + `,{"type":"message","content":[{"type":"output_text","text":"first "},{"type":"output_text","text":"second"}]}],"usage":{"total_tokens":5}}`
	}}
	client := newTestClient(t, fake, false)

	res, err := client.Complete(context.Background(), "gpt-4.1", "q", 10)

	require.NoError(t, err)
	assert.Equal(t, "first second", res.Text)
	assert.Equal(t, 5, res.TokensUsed)
	assert.True(t, res.WebSearchUsed)
}

func TestClient_Complete_FallsBackToAlternateModel(t *testing.T) {
	fake := &fakeOpenAI{responses: func(model string) (int, string) {
		if model == "gpt-5" {
			return http.StatusBadRequest, `{"error":{"message":"unsupported model"}}`
		}
		return http.StatusOK, `{"output":[` + messageOutput("from fallback") + `],"usage":{"total_tokens":9}}`
	}}
	client := newTestClient(t, fake, false)

	res, err := client.Complete(context.Background(), "gpt-5", "q", 10)

	require.NoError(t, err)
	assert.Equal(t, "from fallback", res.Text)
	assert.Equal(t, DefaultFallbackModel, res.ActualModel)
	assert.Equal(t, []string{"/v1/responses", "/v1/responses"}, fake.paths())
}

func TestClient_Complete_EmptyResponsesFallBackToChat(t *testing.T) {
	fake := &fakeOpenAI{
		responses: func(string) (int, string) { return http.StatusOK, `{"output":[]}` },
		chat:      func(string) (int, string) { return http.StatusOK, chatOK },
	}
	client := newTestClient(t, fake, true)

	res, err := client.Complete(context.Background(), "gpt-4o", "q", 10)

	require.NoError(t, err)
	assert.Equal(t, "chat answer", res.Text)
	assert.False(t, res.WebSearchUsed)
	assert.Equal(t, []string{"/v1/responses", "/v1/responses", "/v1/chat/completions"}, fake.paths())
}

func TestClient_Complete_ReasoningModelUsesCompletionTokens(t *testing.T) {
	fake := &fakeOpenAI{
		responses: func(string) (int, string) { return http.StatusInternalServerError, `{}` },
		chat:      func(string) (int, string) { return http.StatusOK, chatOK },
	}
	client := newTestClient(t, fake, false)

	_, err := client.Complete(context.Background(), "o4-mini", "q", 64)

	require.NoError(t, err)
	body := fake.calls[len(fake.calls)-1].Body
	assert.Equal(t, float64(64), body["max_completion_tokens"])
	assert.NotContains(t, body, "max_tokens")
}

func TestClient_Complete_ChatError(t *testing.T) {
	fake := &fakeOpenAI{chat: func(string) (int, string) {
		return http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests"}}`
	}}
	client := newTestClient(t, fake, false)

	res, err := client.Complete(context.Background(), "gpt-4o-mini", "q", 10)

	assert.Nil(t, res)
	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
	assert.Equal(t, "rate limited", apiErr.Message)
}

func TestClient_Complete_NoAPIKey(t *testing.T) {
	client := NewClient(Config{}, nil)

	res, err := client.Complete(context.Background(), "gpt-4o", "q", 10)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClient_PrefersResponses(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil)
	assert.True(t, client.PrefersResponses("gpt-5"))
	assert.True(t, client.PrefersResponses("gpt-4.1-mini"))
	assert.True(t, client.PrefersResponses("o4-mini"))
	assert.False(t, client.PrefersResponses("gpt-4o"))
	assert.False(t, client.PrefersResponses("gpt-3.5-turbo"))

	withSearch := NewClient(Config{APIKey: "k", WebSearch: true}, nil)
	assert.True(t, withSearch.PrefersResponses("gpt-3.5-turbo"))
}
