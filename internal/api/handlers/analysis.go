package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/api"
	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/storage"
)

type AnalysisRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Analysis, error)
	ListSources(ctx context.Context, analysisID string) ([]domain.Source, error)
}

// DownloadURLGenerator presigns archived raw payloads.
type DownloadURLGenerator interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

type AnalysisHandler struct {
	analyses AnalysisRepository
	archive  DownloadURLGenerator
	logger   *zap.Logger
}

// NewAnalysisHandler creates the handler. archive may be nil when no payload
// archive is configured.
func NewAnalysisHandler(analyses AnalysisRepository, archive DownloadURLGenerator, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{analyses: analyses, archive: archive, logger: logger}
}

type AnalysisResponse struct {
	*domain.Analysis
	Sources       []domain.Source `json:"sources"`
	RawPayloadURL string          `json:"raw_payload_url,omitempty"`
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	analysis, err := h.analyses.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	srcs, err := h.analyses.ListSources(ctx, analysis.ID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if srcs == nil {
		srcs = []domain.Source{}
	}

	resp := AnalysisResponse{Analysis: analysis, Sources: srcs}
	if h.archive != nil {
		url, err := h.archive.GenerateDownloadURL(ctx, storage.RawPayloadKey(analysis.ProjectID, analysis.ID))
		if err != nil {
			h.logger.Warn("failed to presign raw payload",
				zap.String("analysis_id", analysis.ID),
				zap.Error(err),
			)
		} else {
			resp.RawPayloadURL = url
		}
	}

	api.Success(w, http.StatusOK, resp)
}
