package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/geotrack/internal/api"
	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/nlp"
	"github.com/cloo-solutions/geotrack/internal/sources"
	"github.com/cloo-solutions/geotrack/internal/visibility"
)

type TopicsService interface {
	Classify(promptText, answer, sector, description string) *domain.ClassificationResult
	Summary(ctx context.Context, projectID string, limit int) (*nlp.TopicsSummary, error)
}

// AnalyzeHandler runs the analyzers on caller supplied text. Nothing is stored.
type AnalyzeHandler struct {
	topics    TopicsService
	extractor *sources.Extractor
}

func NewAnalyzeHandler(topics TopicsService) *AnalyzeHandler {
	return &AnalyzeHandler{topics: topics, extractor: sources.NewExtractor(sources.DefaultMaxItems)}
}

type AnalyzeVisibilityRequest struct {
	Text        string              `json:"text"`
	BrandName   string              `json:"brand_name"`
	Website     string              `json:"website"`
	Competitors []domain.Competitor `json:"competitors"`
}

type AnalyzeVisibilityResponse struct {
	Visibility *domain.VisibilityResult `json:"analysis_results"`
	Sources    []domain.Source          `json:"sources"`
}

type AnalyzeTopicsRequest struct {
	Prompt      string `json:"prompt"`
	Text        string `json:"text"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
}

func (h *AnalyzeHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeVisibilityRequest
	if err := decodeBody(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.BrandName) == "" {
		api.Error(w, http.StatusBadRequest, "brand_name is required")
		return
	}

	project := &domain.Project{
		Name:        req.BrandName,
		MainWebsite: req.Website,
		Competitors: req.Competitors,
	}
	websites := make([]string, 0, len(req.Competitors))
	for _, c := range req.Competitors {
		websites = append(websites, c.Website)
	}

	found := sources.ExcludeDomains(h.extractor.Extract(req.Text), websites)
	if found == nil {
		found = []domain.Source{}
	}
	api.Success(w, http.StatusOK, AnalyzeVisibilityResponse{
		Visibility: visibility.NewAnalyzer(project).Analyze(req.Text),
		Sources:    found,
	})
}

func (h *AnalyzeHandler) Topics(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeTopicsRequest
	if err := decodeBody(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.Prompt) == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	api.Success(w, http.StatusOK, h.topics.Classify(req.Prompt, req.Text, req.Sector, req.Description))
}

// TopicsSummary aggregates the latest classifications of a project.
func (h *AnalyzeHandler) TopicsSummary(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summary, err := h.topics.Summary(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, summary)
}
