package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/metrics"
	"github.com/cloo-solutions/geotrack/internal/prompt"
	"github.com/cloo-solutions/geotrack/internal/sources"
	"github.com/cloo-solutions/geotrack/internal/storage"
	"github.com/cloo-solutions/geotrack/internal/telemetry"
	"github.com/cloo-solutions/geotrack/internal/visibility"
)

// CompletionExecutor runs one rendered prompt on one model.
type CompletionExecutor interface {
	Execute(ctx context.Context, model *domain.AIModel, prompt string, maxTokens int) (*domain.Completion, error)
}

// PayloadArchiver stores raw provider payloads.
type PayloadArchiver interface {
	PutJSON(ctx context.Context, key string, body []byte) error
}

// ExecuteRequest is one execution of a prompt.
type ExecuteRequest struct {
	PromptID      string            `json:"-"`
	Variables     map[string]string `json:"variables,omitempty"`
	MaxTokens     int               `json:"max_tokens,omitempty"`
	ModelIDs      []string          `json:"model_ids,omitempty"`
	CompareModels bool              `json:"compare_models,omitempty"`
}

// ModelResult is the analysed answer of one model.
type ModelResult struct {
	AnalysisID       string                   `json:"analysis_id"`
	AIModelID        string                   `json:"ai_model_id"`
	AIModelUsed      string                   `json:"ai_model_used"`
	ActualModel      string                   `json:"actual_model,omitempty"`
	AIResponse       string                   `json:"ai_response"`
	TokensUsed       int                      `json:"tokens_used"`
	ProcessingTimeMS int64                    `json:"processing_time_ms"`
	CostEstimated    float64                  `json:"cost_estimated"`
	WebSearchUsed    bool                     `json:"web_search_used"`
	Visibility       *domain.VisibilityResult `json:"analysis_results"`
	Sources          []domain.Source          `json:"sources"`
}

// ComparisonSummary aggregates a multi-model execution.
type ComparisonSummary struct {
	Models         []string `json:"models"`
	ModelIDs       []string `json:"model_ids"`
	BestVisibility float64  `json:"best_visibility"`
	BestModel      string   `json:"best_model,omitempty"`
	TotalTokens    int      `json:"total_tokens"`
	TotalCost      float64  `json:"total_cost"`
}

// ExecutionResult is the outcome of ExecutionService.Execute. Analyses keep
// the order of the selected models.
type ExecutionResult struct {
	PromptID             string
	PromptName           string
	ProjectName          string
	PromptExecuted       string
	VariablesUsed        map[string]string
	Analyses             []*ModelResult
	Comparison           *ComparisonSummary
	TotalExecutionTimeMS int64
}

// IsMulti reports whether more than one model ran.
func (r *ExecutionResult) IsMulti() bool {
	return len(r.Analyses) > 1
}

// MarshalJSON emits a flat payload for single-model runs and a list with a
// comparison summary otherwise.
func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	if !r.IsMulti() && len(r.Analyses) == 1 {
		a := r.Analyses[0]
		return json.Marshal(map[string]any{
			"success":           true,
			"analysis_id":       a.AnalysisID,
			"prompt_id":         r.PromptID,
			"prompt_name":       r.PromptName,
			"project_name":      r.ProjectName,
			"ai_model_used":     a.AIModelUsed,
			"prompt_executed":   r.PromptExecuted,
			"ai_response":       a.AIResponse,
			"variables_used":    r.VariablesUsed,
			"brand_mentioned":   a.Visibility.BrandMentioned,
			"website_mentioned": a.Visibility.WebsiteMentioned,
			"website_linked":    a.Visibility.WebsiteLinked,
			"ranking_position":  a.Visibility.RankingPosition,
			"visibility_score":  a.Visibility.VisibilityScore,
			"analysis_results":  a.Visibility,
			"sources":           a.Sources,
			"web_search_used":   a.WebSearchUsed,
			"execution_metrics": map[string]any{
				"total_execution_time_ms": r.TotalExecutionTimeMS,
				"ai_processing_time_ms":   a.ProcessingTimeMS,
				"tokens_used":             a.TokensUsed,
				"cost_estimated":          a.CostEstimated,
			},
		})
	}

	totalCost := 0.0
	if r.Comparison != nil {
		totalCost = r.Comparison.TotalCost
	}
	return json.Marshal(map[string]any{
		"success":            true,
		"prompt_id":          r.PromptID,
		"prompt_name":        r.PromptName,
		"project_name":       r.ProjectName,
		"prompt_executed":    r.PromptExecuted,
		"variables_used":     r.VariablesUsed,
		"analyses":           r.Analyses,
		"total_cost":         totalCost,
		"comparison_summary": r.Comparison,
		"execution_metrics": map[string]any{
			"total_execution_time_ms": r.TotalExecutionTimeMS,
		},
	})
}

// ExecutionService renders a prompt, fans it out to the selected models,
// analyses every answer and persists the analyses.
type ExecutionService struct {
	prompts  PromptRepositoryInterface
	tx       TxRunner
	executor CompletionExecutor
	archive  PayloadArchiver
	uuidGen  UUIDGenerator
	logger   *zap.Logger
	now      func() time.Time
}

// NewExecutionService creates a new ExecutionService instance
func NewExecutionService(
	prompts PromptRepositoryInterface,
	tx TxRunner,
	executor CompletionExecutor,
	logger *zap.Logger,
) *ExecutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecutionService{
		prompts:  prompts,
		tx:       tx,
		executor: executor,
		uuidGen:  &DefaultUUIDGenerator{},
		logger:   logger,
		now:      time.Now,
	}
}

// WithArchive enables raw payload archiving.
func (s *ExecutionService) WithArchive(a PayloadArchiver) *ExecutionService {
	s.archive = a
	return s
}

// WithUUIDGen overrides id generation (for testing).
func (s *ExecutionService) WithUUIDGen(g UUIDGenerator) *ExecutionService {
	s.uuidGen = g
	return s
}

// Execute runs one prompt. Any model failure aborts the whole request and
// nothing is persisted.
func (s *ExecutionService) Execute(ctx context.Context, req ExecuteRequest) (*ExecutionResult, error) {
	start := s.now()
	ctx, span := telemetry.StartSpan(ctx, "execution.run", telemetry.SpanAttributes{
		PromptID: req.PromptID,
	})
	defer span.End()

	result, err := s.execute(ctx, req, start)
	mode := "single"
	if req.CompareModels || (result != nil && result.IsMulti()) {
		mode = "multi"
	}
	if err != nil {
		metrics.Executions.WithLabelValues(mode, metrics.OutcomeError).Inc()
		span.SetError(err)
		s.logger.Warn("execution failed",
			zap.String("prompt_id", req.PromptID),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.Executions.WithLabelValues(mode, metrics.OutcomeSuccess).Inc()
	return result, nil
}

func (s *ExecutionService) execute(ctx context.Context, req ExecuteRequest, start time.Time) (*ExecutionResult, error) {
	p, err := s.prompts.GetWithRelations(ctx, req.PromptID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.Wrap(domain.ErrPromptInactive, fmt.Errorf("%q", p.Name))
	}
	if p.Project == nil {
		return nil, domain.ErrProjectNotFound
	}

	models, err := ResolveModels(p, req.ModelIDs, req.CompareModels)
	if err != nil {
		return nil, err
	}

	rendered, err := prompt.Render(p.Template, prompt.ProjectVariables(p.Project), req.Variables)
	if err != nil {
		return nil, err
	}

	s.logger.Info("executing prompt",
		zap.String("prompt_id", p.ID),
		zap.String("prompt", p.Name),
		zap.Int("models", len(models)),
	)

	completions, err := s.fanOut(ctx, models, rendered.Text, req.MaxTokens)
	if err != nil {
		return nil, err
	}

	analyzer := visibility.NewAnalyzer(p.Project)
	extractor := sources.NewExtractor(sources.DefaultMaxItems)
	competitorSites := make([]string, 0, len(p.Project.Competitors))
	for _, c := range p.Project.Competitors {
		if c.Website != "" {
			competitorSites = append(competitorSites, c.Website)
		}
	}

	now := s.now()
	analyses := make([]*domain.Analysis, len(models))
	results := make([]*ModelResult, len(models))
	for i, c := range completions {
		vis := analyzer.Analyze(c.Text)
		srcs := sources.ExcludeDomains(extractor.Extract(c.Text), competitorSites)
		if srcs == nil {
			srcs = []domain.Source{}
		}
		metrics.VisibilityScore.Observe(vis.VisibilityScore)

		analyses[i] = &domain.Analysis{
			ID:               s.uuidGen.NewString(),
			PromptID:         p.ID,
			ProjectID:        p.ProjectID,
			AIModelID:        models[i].ID,
			PromptExecuted:   rendered.Text,
			AIResponse:       c.Text,
			VariablesUsed:    rendered.VariablesUsed,
			Visibility:       vis,
			AIModelUsed:      c.ModelName,
			TokensUsed:       c.TokensUsed,
			ProcessingTimeMS: c.ProcessingTimeMS,
			CostEstimated:    c.Cost,
			WebSearchUsed:    c.WebSearchUsed,
			CreatedAt:        now,
		}
		results[i] = &ModelResult{
			AnalysisID:       analyses[i].ID,
			AIModelID:        models[i].ID,
			AIModelUsed:      c.ModelName,
			ActualModel:      c.ActualModel,
			AIResponse:       c.Text,
			TokensUsed:       c.TokensUsed,
			ProcessingTimeMS: c.ProcessingTimeMS,
			CostEstimated:    c.Cost,
			WebSearchUsed:    c.WebSearchUsed,
			Visibility:       vis,
			Sources:          srcs,
		}
	}

	err = s.tx.WithTx(ctx, func(repos TxRepositories) error {
		for i, a := range analyses {
			if err := repos.Analyses().Create(ctx, a); err != nil {
				return err
			}
			if len(results[i].Sources) > 0 {
				if err := repos.Analyses().CreateSources(ctx, a.ID, results[i].Sources); err != nil {
					return err
				}
			}
		}
		return repos.Prompts().IncrementExecution(ctx, p.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.archiveRaw(ctx, p.ProjectID, analyses, completions)

	out := &ExecutionResult{
		PromptID:             p.ID,
		PromptName:           p.Name,
		ProjectName:          p.Project.Name,
		PromptExecuted:       rendered.Text,
		VariablesUsed:        rendered.VariablesUsed,
		Analyses:             results,
		TotalExecutionTimeMS: s.now().Sub(start).Milliseconds(),
	}
	if out.IsMulti() {
		out.Comparison = compare(results)
	}

	s.logger.Info("execution completed",
		zap.String("prompt_id", p.ID),
		zap.Int("analyses", len(results)),
		zap.Int64("elapsed_ms", out.TotalExecutionTimeMS),
	)
	return out, nil
}

// fanOut calls every model concurrently. Results keep model order and the
// first failure cancels the others.
func (s *ExecutionService) fanOut(ctx context.Context, models []*domain.AIModel, text string, maxTokens int) ([]*domain.Completion, error) {
	completions := make([]*domain.Completion, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range models {
		g.Go(func() error {
			c, err := s.executor.Execute(gctx, m, text, maxTokens)
			if err != nil {
				return fmt.Errorf("model %s: %w", m.Name, err)
			}
			completions[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return completions, nil
}

func (s *ExecutionService) archiveRaw(ctx context.Context, projectID string, analyses []*domain.Analysis, completions []*domain.Completion) {
	if s.archive == nil {
		return
	}
	for i, c := range completions {
		if len(c.Raw) == 0 {
			continue
		}
		key := storage.RawPayloadKey(projectID, analyses[i].ID)
		if err := s.archive.PutJSON(ctx, key, c.Raw); err != nil {
			s.logger.Warn("failed to archive raw payload",
				zap.String("analysis_id", analyses[i].ID),
				zap.Error(err),
			)
		}
	}
}

// Preview renders a prompt without calling any provider.
func (s *ExecutionService) Preview(ctx context.Context, promptID string, overrides map[string]string) (*prompt.Preview, error) {
	p, err := s.prompts.GetWithRelations(ctx, promptID)
	if err != nil {
		return nil, err
	}
	return prompt.BuildPreview(p, overrides), nil
}

// ResolveModels selects the models a prompt runs on. Multi-agent prompts and
// comparison requests use the active associated models, optionally narrowed
// to modelIDs; other prompts use their single model.
func ResolveModels(p *domain.Prompt, modelIDs []string, compare bool) ([]*domain.AIModel, error) {
	if p.IsMultiAgent || compare {
		models := p.ActiveModels()
		if len(models) == 0 {
			return nil, domain.ErrNoActiveModels
		}
		if len(modelIDs) == 0 {
			return models, nil
		}
		wanted := make(map[string]bool, len(modelIDs))
		for _, id := range modelIDs {
			wanted[id] = true
		}
		var selected []*domain.AIModel
		for _, m := range models {
			if wanted[m.ID] {
				selected = append(selected, m)
			}
		}
		if len(selected) == 0 {
			return nil, domain.ErrRequestedModelsUnfit
		}
		return selected, nil
	}

	if p.Model == nil || !p.Model.IsActive {
		return nil, domain.ErrModelNotConfigured
	}
	return []*domain.AIModel{p.Model}, nil
}

func compare(results []*ModelResult) *ComparisonSummary {
	c := &ComparisonSummary{
		Models:   make([]string, 0, len(results)),
		ModelIDs: make([]string, 0, len(results)),
	}
	for i, r := range results {
		c.Models = append(c.Models, r.AIModelUsed)
		c.ModelIDs = append(c.ModelIDs, r.AIModelID)
		c.TotalTokens += r.TokensUsed
		c.TotalCost += r.CostEstimated
		if i == 0 || r.Visibility.VisibilityScore > c.BestVisibility {
			c.BestVisibility = r.Visibility.VisibilityScore
			c.BestModel = r.AIModelUsed
		}
	}
	return c
}
