package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/geotrack/internal/api"
	"github.com/cloo-solutions/geotrack/internal/prompt"
	"github.com/cloo-solutions/geotrack/internal/service"
)

type ExecutionService interface {
	Execute(ctx context.Context, req service.ExecuteRequest) (*service.ExecutionResult, error)
	Preview(ctx context.Context, promptID string, overrides map[string]string) (*prompt.Preview, error)
}

type ExecutionHandler struct {
	svc ExecutionService
}

func NewExecutionHandler(svc ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{svc: svc}
}

type ExecuteRequest struct {
	Variables     map[string]string `json:"variables"`
	MaxTokens     int               `json:"max_tokens"`
	ModelIDs      []string          `json:"model_ids"`
	CompareModels bool              `json:"compare_models"`
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Execute renders the prompt and runs it on the selected models. A single
// model yields the flat result shape, several models the comparison shape.
func (h *ExecutionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	promptID := chi.URLParam(r, "id")
	if promptID == "" {
		api.Error(w, http.StatusBadRequest, "prompt id is required")
		return
	}

	var req ExecuteRequest
	if err := decodeBody(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaxTokens < 0 {
		api.Error(w, http.StatusBadRequest, "max_tokens must be positive")
		return
	}

	result, err := h.svc.Execute(r.Context(), service.ExecuteRequest{
		PromptID:      promptID,
		Variables:     req.Variables,
		MaxTokens:     req.MaxTokens,
		ModelIDs:      req.ModelIDs,
		CompareModels: req.CompareModels,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

// Preview renders the prompt without calling any provider. Query parameters
// override project variables.
func (h *ExecutionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	promptID := chi.URLParam(r, "id")
	if promptID == "" {
		api.Error(w, http.StatusBadRequest, "prompt id is required")
		return
	}

	overrides := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			overrides[key] = values[0]
		}
	}

	preview, err := h.svc.Preview(r.Context(), promptID, overrides)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, preview)
}
