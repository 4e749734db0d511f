// Package jobs runs project-wide batch executions and background
// classification.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/metrics"
	"github.com/cloo-solutions/geotrack/internal/service"
	"github.com/cloo-solutions/geotrack/internal/telemetry"
)

// DefaultConcurrency is the number of prompt executions in flight across
// every job of a controller.
const DefaultConcurrency = 2

// PromptRunner executes one prompt.
type PromptRunner interface {
	Execute(ctx context.Context, req service.ExecuteRequest) (*service.ExecutionResult, error)
}

// PromptLister lists the prompts a job runs.
type PromptLister interface {
	ListActiveIDsByProject(ctx context.Context, projectID string) ([]string, error)
}

// Controller runs every active prompt of a project as a job. All jobs share
// one concurrency cap.
type Controller struct {
	runner  PromptRunner
	prompts PromptLister
	store   Store
	sem     *semaphore.Weighted
	logger  *zap.Logger
	newID   func() string
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewController creates a controller. Non-positive concurrency uses
// DefaultConcurrency.
func NewController(runner PromptRunner, prompts PromptLister, store Store, concurrency int64, logger *zap.Logger) *Controller {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		runner:  runner,
		prompts: prompts,
		store:   store,
		sem:     semaphore.NewWeighted(concurrency),
		logger:  logger,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Submit registers a queued job for projectID and starts it in the
// background. The returned snapshot is the queued job.
func (c *Controller) Submit(ctx context.Context, projectID string) (*domain.Job, error) {
	job := domain.NewJob(c.newID(), projectID, c.now().UTC())
	if err := c.store.Save(ctx, job); err != nil {
		return nil, err
	}
	snapshot := job.Clone()

	c.logger.Info("job submitted", zap.String("job_id", job.ID), zap.String("project_id", projectID))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(context.WithoutCancel(ctx), job)
	}()
	return snapshot, nil
}

// Status returns the latest snapshot of a job.
func (c *Controller) Status(ctx context.Context, id string) (*domain.Job, error) {
	return c.store.Get(ctx, id)
}

// Wait blocks until every submitted job reached a terminal state or ctx is
// done.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tracker serializes counter updates of one job and persists each snapshot.
type tracker struct {
	mu     sync.Mutex
	job    *domain.Job
	store  Store
	logger *zap.Logger
}

func (t *tracker) update(ctx context.Context, fn func(j *domain.Job)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.job)
	if err := t.store.Save(ctx, t.job); err != nil {
		t.logger.Warn("failed to save job snapshot", zap.String("job_id", t.job.ID), zap.Error(err))
	}
}

func (c *Controller) run(ctx context.Context, job *domain.Job) {
	metrics.JobsActive.Inc()
	defer metrics.JobsActive.Dec()

	ctx, span := telemetry.StartSpan(ctx, "job.run", telemetry.SpanAttributes{
		ProjectID: job.ProjectID,
		JobID:     job.ID,
	})
	defer span.End()

	t := &tracker{job: job, store: c.store, logger: c.logger}

	ids, err := c.prompts.ListActiveIDsByProject(ctx, job.ProjectID)
	if err != nil {
		span.SetError(err)
		c.logger.Error("job failed to list prompts", zap.String("job_id", job.ID), zap.Error(err))
		t.update(ctx, func(j *domain.Job) {
			now := c.now().UTC()
			j.Status = domain.JobStatusFailed
			j.FinishedAt = &now
			j.Errors = append(j.Errors, fmt.Sprintf("failed to list prompts: %v", err))
		})
		return
	}

	t.update(ctx, func(j *domain.Job) {
		now := c.now().UTC()
		j.Status = domain.JobStatusRunning
		j.StartedAt = &now
		j.TotalItems = len(ids)
		c.completeIfDone(j)
	})
	c.logger.Info("job running", zap.String("job_id", job.ID), zap.Int("prompts", len(ids)))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.runItem(ctx, t, id)
		}()
	}
	wg.Wait()

	c.logger.Info("job completed",
		zap.String("job_id", job.ID),
		zap.Int("success", job.SuccessCount),
		zap.Int("errors", job.ErrorCount),
	)
}

// completeIfDone moves a running job to completed in the same snapshot that
// processes its last item, so no saved snapshot is running with every item
// processed.
func (c *Controller) completeIfDone(j *domain.Job) {
	if j.Status != domain.JobStatusRunning || j.ProcessedItems < j.TotalItems {
		return
	}
	now := c.now().UTC()
	j.Status = domain.JobStatusCompleted
	j.FinishedAt = &now
}

func (c *Controller) runItem(ctx context.Context, t *tracker, promptID string) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		c.record(ctx, t, promptID, err)
		return
	}
	metrics.JobSlotsInUse.Inc()
	defer func() {
		metrics.JobSlotsInUse.Dec()
		c.sem.Release(1)
	}()

	c.record(ctx, t, promptID, c.execute(ctx, promptID))
}

// execute turns a panic in the orchestration into an item error.
func (c *Controller) execute(ctx context.Context, promptID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	_, err = c.runner.Execute(ctx, service.ExecuteRequest{PromptID: promptID})
	return err
}

func (c *Controller) record(ctx context.Context, t *tracker, promptID string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		c.logger.Warn("job item failed",
			zap.String("job_id", t.job.ID),
			zap.String("prompt_id", promptID),
			zap.Error(err),
		)
	}
	metrics.JobItems.WithLabelValues(outcome).Inc()

	t.update(ctx, func(j *domain.Job) {
		j.ProcessedItems++
		item := domain.JobItemResult{PromptID: promptID, Success: err == nil}
		if err != nil {
			j.ErrorCount++
			item.Error = err.Error()
			j.Errors = append(j.Errors, fmt.Sprintf("prompt %s: %v", promptID, err))
		} else {
			j.SuccessCount++
		}
		j.Results = append(j.Results, item)
		c.completeIfDone(j)
	})
}
