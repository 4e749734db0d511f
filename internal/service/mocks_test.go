package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

type MockPromptRepository struct {
	mock.Mock
}

func (m *MockPromptRepository) GetWithRelations(ctx context.Context, id string) (*domain.Prompt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

func (m *MockPromptRepository) ListActiveIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPromptRepository) IncrementExecution(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnalysisRepository) CreateSources(ctx context.Context, analysisID string, sources []domain.Source) error {
	args := m.Called(ctx, analysisID, sources)
	return args.Error(0)
}

func (m *MockAnalysisRepository) ListPendingClassification(ctx context.Context, limit int, skip []string) ([]*domain.PendingClassification, error) {
	args := m.Called(ctx, limit, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PendingClassification), args.Error(1)
}

func (m *MockAnalysisRepository) SaveTopics(ctx context.Context, t *domain.AnalysisTopics) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockAnalysisRepository) ListClassificationsByProject(ctx context.Context, projectID string, limit int) ([]*domain.ClassificationResult, error) {
	args := m.Called(ctx, projectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClassificationResult), args.Error(1)
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

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, model *domain.AIModel, prompt string, maxTokens int) (*domain.Completion, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Completion), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) PutJSON(ctx context.Context, key string, body []byte) error {
	args := m.Called(ctx, key, body)
	return args.Error(0)
}

type sequenceUUID struct {
	ids []string
	i   int
}

func (s *sequenceUUID) NewString() string {
	id := s.ids[s.i%len(s.ids)]
	s.i++
	return id
}
