package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/metrics"
	"github.com/cloo-solutions/geotrack/internal/nlp"
	"github.com/cloo-solutions/geotrack/internal/telemetry"
)

const (
	DefaultSummaryLimit = 100
	MaxSummaryLimit     = 1000

	// maxSkippedTopics bounds the set of analyses whose topics failed to save.
	// Past it the set is cleared and those analyses are retried.
	maxSkippedTopics = 1000
)

// TopicsService classifies stored answers and aggregates classifications.
type TopicsService struct {
	analyses   AnalysisRepositoryInterface
	projects   ProjectRepositoryInterface
	classifier *nlp.Classifier
	uuidGen    UUIDGenerator
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	skipped map[string]struct{}
}

// NewTopicsService creates a new TopicsService instance
func NewTopicsService(
	analyses AnalysisRepositoryInterface,
	projects ProjectRepositoryInterface,
	classifier *nlp.Classifier,
	logger *zap.Logger,
) *TopicsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = nlp.NewClassifier(nil, logger)
	}
	return &TopicsService{
		analyses:   analyses,
		projects:   projects,
		classifier: classifier,
		uuidGen:    &DefaultUUIDGenerator{},
		logger:     logger,
		now:        time.Now,
		skipped:    make(map[string]struct{}),
	}
}

// Classify runs the classifier on supplied text. The sector is detected from
// sector, then description, then the default sector.
func (s *TopicsService) Classify(promptText, answer, sector, description string) *domain.ClassificationResult {
	resolved := s.classifier.Dictionaries().DetectSector(sector, description)
	return s.classifier.Classify(promptText, answer, resolved)
}

// ClassifyPending classifies up to limit analyses that have no topics yet
// and returns how many were stored. An analysis whose save fails is logged
// and left out of later batches so it cannot hold back the rest.
func (s *TopicsService) ClassifyPending(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "topics.classify_pending", telemetry.SpanAttributes{})
	defer span.End()

	pending, err := s.analyses.ListPendingClassification(ctx, limit, s.skippedIDs())
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	stored := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return stored, ctx.Err()
		}
		result := s.Classify(p.PromptExecuted, p.AIResponse, p.ProjectSector, p.ProjectDescription)
		err := s.analyses.SaveTopics(ctx, &domain.AnalysisTopics{
			ID:             s.uuidGen.NewString(),
			AnalysisID:     p.AnalysisID,
			Classification: result,
			CreatedAt:      s.now(),
		})
		if err != nil {
			metrics.TopicsClassified.WithLabelValues(metrics.OutcomeError).Inc()
			s.logger.Warn("failed to save topics",
				zap.String("analysis_id", p.AnalysisID),
				zap.Error(err),
			)
			s.skip(p.AnalysisID)
			continue
		}
		metrics.TopicsClassified.WithLabelValues(metrics.OutcomeSuccess).Inc()
		stored++
	}
	return stored, nil
}

func (s *TopicsService) skippedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.skipped))
	for id := range s.skipped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *TopicsService) skip(analysisID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.skipped) >= maxSkippedTopics {
		s.logger.Warn("clearing skipped analyses", zap.Int("count", len(s.skipped)))
		clear(s.skipped)
	}
	s.skipped[analysisID] = struct{}{}
}

// Summary aggregates the latest classifications of a project.
func (s *TopicsService) Summary(ctx context.Context, projectID string, limit int) (*nlp.TopicsSummary, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	if limit > MaxSummaryLimit {
		limit = MaxSummaryLimit
	}
	items, err := s.analyses.ListClassificationsByProject(ctx, projectID, limit)
	if err != nil {
		return nil, err
	}
	return nlp.Summarize(items), nil
}
