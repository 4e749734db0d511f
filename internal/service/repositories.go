package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

// ProjectRepositoryInterface defines the repository interface for projects
type ProjectRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
}

// PromptRepositoryInterface defines the repository interface for prompts
type PromptRepositoryInterface interface {
	// GetWithRelations loads the prompt with its project, competitors and models.
	GetWithRelations(ctx context.Context, id string) (*domain.Prompt, error)
	ListActiveIDsByProject(ctx context.Context, projectID string) ([]string, error)
	IncrementExecution(ctx context.Context, id string, at time.Time) error
}

// AIModelRepositoryInterface defines the repository interface for AI models
type AIModelRepositoryInterface interface {
	Create(ctx context.Context, m *domain.AIModel) error
	GetByID(ctx context.Context, id string) (*domain.AIModel, error)
	List(ctx context.Context) ([]*domain.AIModel, error)
}

// AnalysisRepositoryInterface defines the repository interface for analyses
type AnalysisRepositoryInterface interface {
	// Create stores the analysis together with its competitor rows.
	Create(ctx context.Context, a *domain.Analysis) error
	CreateSources(ctx context.Context, analysisID string, sources []domain.Source) error
	ListPendingClassification(ctx context.Context, limit int, skip []string) ([]*domain.PendingClassification, error)
	SaveTopics(ctx context.Context, t *domain.AnalysisTopics) error
	ListClassificationsByProject(ctx context.Context, projectID string, limit int) ([]*domain.ClassificationResult, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
