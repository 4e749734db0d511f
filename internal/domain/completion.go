package domain

import "encoding/json"

// Completion is a provider-normalized model answer.
type Completion struct {
	Text             string  `json:"text"`
	TokensUsed       int     `json:"tokens_used"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
	Cost             float64 `json:"cost"`
	WebSearchUsed    bool    `json:"web_search_used"`
	ModelName        string  `json:"model_name"`
	// ActualModel is the provider model id that produced the text. It differs
	// from the requested id when a fallback model answered.
	ActualModel string          `json:"actual_model,omitempty"`
	Raw         json.RawMessage `json:"-"`
}
