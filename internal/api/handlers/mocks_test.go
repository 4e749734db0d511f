package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/nlp"
	"github.com/cloo-solutions/geotrack/internal/prompt"
	"github.com/cloo-solutions/geotrack/internal/service"
)

type MockExecutionService struct {
	mock.Mock
}

func (m *MockExecutionService) Execute(ctx context.Context, req service.ExecuteRequest) (*service.ExecutionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExecutionResult), args.Error(1)
}

func (m *MockExecutionService) Preview(ctx context.Context, promptID string, overrides map[string]string) (*prompt.Preview, error) {
	args := m.Called(ctx, promptID, overrides)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prompt.Preview), args.Error(1)
}

type MockJobController struct {
	mock.Mock
}

func (m *MockJobController) Submit(ctx context.Context, projectID string) (*domain.Job, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobController) Status(ctx context.Context, id string) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

type MockTopicsService struct {
	mock.Mock
}

func (m *MockTopicsService) Classify(promptText, answer, sector, description string) *domain.ClassificationResult {
	args := m.Called(promptText, answer, sector, description)
	return args.Get(0).(*domain.ClassificationResult)
}

func (m *MockTopicsService) Summary(ctx context.Context, projectID string, limit int) (*nlp.TopicsSummary, error) {
	args := m.Called(ctx, projectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nlp.TopicsSummary), args.Error(1)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

func (m *MockAnalysisRepository) ListSources(ctx context.Context, analysisID string) ([]domain.Source, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Source), args.Error(1)
}

type MockDownloadURLGenerator struct {
	mock.Mock
}

func (m *MockDownloadURLGenerator) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func newRequest(method, url, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if len(params) == 0 {
		return req
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}
