package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/api"
	"github.com/cloo-solutions/geotrack/internal/api/handlers"
	"github.com/cloo-solutions/geotrack/internal/api/middleware"
	"github.com/cloo-solutions/geotrack/internal/metrics"
)

type RouterConfig struct {
	// APIToken protects every route but /health and /metrics when set.
	APIToken         string
	MaxBodyBytes     int64
	Logger           *zap.Logger
	ExecutionHandler *handlers.ExecutionHandler
	JobHandler       *handlers.JobHandler
	AnalyzeHandler   *handlers.AnalyzeHandler
	AnalysisHandler  *handlers.AnalysisHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.MaxBodyBytes(maxBody))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.APIToken))

		r.Route("/prompts/{id}", func(r chi.Router) {
			r.Post("/execute", cfg.ExecutionHandler.Execute)
			r.Get("/preview", cfg.ExecutionHandler.Preview)
		})

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Post("/jobs", cfg.JobHandler.Submit)
			r.Get("/topics/summary", cfg.AnalyzeHandler.TopicsSummary)
		})

		r.Get("/jobs/{id}", cfg.JobHandler.Get)
		r.Get("/analyses/{id}", cfg.AnalysisHandler.Get)

		r.Route("/analyze", func(r chi.Router) {
			r.Post("/visibility", cfg.AnalyzeHandler.Visibility)
			r.Post("/topics", cfg.AnalyzeHandler.Topics)
		})
	})

	return r
}
