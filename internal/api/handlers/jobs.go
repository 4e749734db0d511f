package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/geotrack/internal/api"
	"github.com/cloo-solutions/geotrack/internal/domain"
)

type JobController interface {
	Submit(ctx context.Context, projectID string) (*domain.Job, error)
	Status(ctx context.Context, id string) (*domain.Job, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
}

type JobHandler struct {
	jobs     JobController
	projects ProjectRepository
}

func NewJobHandler(jobs JobController, projects ProjectRepository) *JobHandler {
	return &JobHandler{jobs: jobs, projects: projects}
}

type SubmitJobResponse struct {
	JobID     string           `json:"job_id"`
	Status    domain.JobStatus `json:"status"`
	CreatedAt string           `json:"created_at"`
}

// Submit starts a batch execution of every active prompt of the project and
// returns immediately.
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "project id is required")
		return
	}

	if _, err := h.projects.GetByID(r.Context(), projectID); err != nil {
		api.HandleError(w, err)
		return
	}

	job, err := h.jobs.Submit(r.Context(), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, SubmitJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, job)
}
