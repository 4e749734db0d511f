package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchProcessor handles one round of background work. more reports that
// the round was full and another one should run without waiting.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (more bool, err error)
}

// maxDrainRounds bounds back-to-back rounds inside one tick.
const maxDrainRounds = 50

// Worker runs a BatchProcessor on a fixed interval until stopped.
type Worker struct {
	processor BatchProcessor
	interval  time.Duration
	logger    *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewWorker(processor BatchProcessor, interval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		processor: processor,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped", zap.String("reason", "context done"))
			return
		case <-w.stop:
			w.logger.Info("worker stopped", zap.String("reason", "stop requested"))
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for round := 0; round < maxDrainRounds; round++ {
		more, err := w.processor.ProcessBatch(ctx)
		if err != nil {
			w.logger.Error("batch failed", zap.Int("round", round), zap.Error(err))
			return
		}
		if !more || ctx.Err() != nil {
			return
		}
		select {
		case <-w.stop:
			return
		default:
		}
	}
}

// Stop signals the loop and waits for it to exit. Safe to call twice.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
