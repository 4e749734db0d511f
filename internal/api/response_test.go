package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/prompt"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestEnvelopes(t *testing.T) {
	t.Run("success wraps data", func(t *testing.T) {
		w := httptest.NewRecorder()
		Success(w, http.StatusAccepted, map[string]string{"job_id": "job-1"})

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, map[string]interface{}{"job_id": "job-1"}, decodeBody(t, w)["data"])
	})

	t.Run("error carries message only", func(t *testing.T) {
		w := httptest.NewRecorder()
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, map[string]interface{}{"error": "request body too large"}, decodeBody(t, w))
	})

	t.Run("nil payload writes no body", func(t *testing.T) {
		w := httptest.NewRecorder()
		JSON(w, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{domain.NewDomainError(domain.ErrCodeValidation, "bad"), http.StatusBadRequest},
		{domain.NewDomainError(domain.ErrCodeInvalidOperation, "nope"), http.StatusBadRequest},
		{domain.ErrPromptNotFound, http.StatusNotFound},
		{domain.ErrJobNotFound, http.StatusNotFound},
		{domain.ErrAIModelAlreadyExists, http.StatusConflict},
		{domain.ErrInvalidAPIToken, http.StatusUnauthorized},
		{domain.NewDomainError(domain.ErrCodeForbidden, "forbidden"), http.StatusForbidden},
		{domain.ErrPromptInactive, http.StatusUnprocessableEntity},
		{domain.ErrProviderFailed, http.StatusBadGateway},
		{fmt.Errorf("model gpt: %w", domain.ErrProviderMalformed), http.StatusBadGateway},
		{domain.ErrProviderTimeout, http.StatusGatewayTimeout},
		{&prompt.MissingVariableError{Names: []string{"x"}}, http.StatusBadRequest},
		{domain.NewDomainError("SOMETHING_NEW", "?"), http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantCode      string
		wantMissing   []interface{}
		wantMalformed []interface{}
	}{
		{
			name:       "not found",
			err:        domain.ErrPromptNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   domain.ErrCodeNotFound,
		},
		{
			name:        "missing variables",
			err:         domain.Wrap(domain.ErrMissingVariable, &prompt.MissingVariableError{Names: []string{"city", "year"}}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    domain.ErrCodeValidation,
			wantMissing: []interface{}{"city", "year"},
		},
		{
			name:          "malformed tokens",
			err:           &prompt.MalformedVariableError{Tokens: []string{"{1x}"}},
			wantStatus:    http.StatusBadRequest,
			wantCode:      domain.ErrCodeValidation,
			wantMalformed: []interface{}{"{1x}"},
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("pool closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   domain.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.err.Error(), body["error"])
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.wantMissing == nil {
				assert.NotContains(t, body, "missing_variables")
			} else {
				assert.Equal(t, tt.wantMissing, body["missing_variables"])
			}
			if tt.wantMalformed == nil {
				assert.NotContains(t, body, "malformed_tokens")
			} else {
				assert.Equal(t, tt.wantMalformed, body["malformed_tokens"])
			}
		})
	}
}
