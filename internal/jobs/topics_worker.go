package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultTopicsBatchSize is the number of analyses classified per round.
const DefaultTopicsBatchSize = 20

// PendingClassifier classifies stored analyses that have no topics yet.
type PendingClassifier interface {
	ClassifyPending(ctx context.Context, limit int) (int, error)
}

// TopicsWorker classifies answers after they were persisted, so executions
// never wait on the classifier.
type TopicsWorker struct {
	classifier PendingClassifier
	batchSize  int
	logger     *zap.Logger
}

// NewTopicsWorker creates a new TopicsWorker instance
func NewTopicsWorker(classifier PendingClassifier, batchSize int, logger *zap.Logger) *TopicsWorker {
	if batchSize <= 0 {
		batchSize = DefaultTopicsBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicsWorker{classifier: classifier, batchSize: batchSize, logger: logger}
}

// ProcessBatch classifies one batch and asks for another when it was full.
func (w *TopicsWorker) ProcessBatch(ctx context.Context) (bool, error) {
	stored, err := w.classifier.ClassifyPending(ctx, w.batchSize)
	if err != nil {
		return false, fmt.Errorf("failed to classify pending analyses: %w", err)
	}
	if stored > 0 {
		w.logger.Info("classified pending analyses", zap.Int("count", stored), zap.Int("batch_size", w.batchSize))
	}
	return stored >= w.batchSize, nil
}
