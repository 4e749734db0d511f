//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/service"
)

func newAnalysis(project *domain.Project, prompt *domain.Prompt, model *domain.AIModel) *domain.Analysis {
	rank := 2
	return &domain.Analysis{
		ID:             uuid.NewString(),
		PromptID:       prompt.ID,
		ProjectID:      project.ID,
		AIModelID:      model.ID,
		PromptExecuted: "What is the best CRM like MyBrand?",
		AIResponse:     "1. Rival\n2. MyBrand https://mybrand.com",
		VariablesUsed:  map[string]string{"project_name": "MyBrand"},
		Visibility: &domain.VisibilityResult{
			BrandMentioned:  true,
			WebsiteLinked:   true,
			RankingPosition: &rank,
			VisibilityScore: 72,
			CompetitorsMentioned: map[string]domain.CompetitorMention{
				"Rival": {Count: 1, Contexts: []string{"1. Rival"}},
			},
		},
		AIModelUsed: model.Name,
		TokensUsed:  150,
		CreatedAt:   now(),
	}
}

func TestAnalysisRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewAnalysisRepository(pool)

	project := seedProject(ctx, t, pool)
	model := seedModel(ctx, t, pool, "m", true)
	prompt := seedPrompt(ctx, t, pool, project.ID, model)

	a := newAnalysis(project, prompt, model)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.CreateSources(ctx, a.ID, []domain.Source{
		{URL: "https://docs.example.org/a", Domain: "docs.example.org", BaseDomain: "example.org", Position: 10},
		{URL: "https://blog.test/b", Domain: "blog.test", Position: 3},
	}))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.AIResponse, got.AIResponse)
	assert.Equal(t, a.VariablesUsed, got.VariablesUsed)
	assert.Equal(t, float64(72), got.Visibility.VisibilityScore)
	require.NotNil(t, got.Visibility.RankingPosition)
	assert.Equal(t, 2, *got.Visibility.RankingPosition)

	sources, err := repo.ListSources(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "https://blog.test/b", sources[0].URL)

	var mentioned int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT mention_count FROM analysis_competitors WHERE analysis_id = $1 AND competitor_name = 'Rival'`,
		a.ID,
	).Scan(&mentioned))
	assert.Equal(t, 1, mentioned)
}

func TestAnalysisRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	_, err := NewAnalysisRepository(pool).GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
}

func TestAnalysisRepository_TopicsLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewAnalysisRepository(pool)

	project := seedProject(ctx, t, pool)
	model := seedModel(ctx, t, pool, "m", true)
	prompt := seedPrompt(ctx, t, pool, project.ID, model)
	a := newAnalysis(project, prompt, model)
	require.NoError(t, repo.Create(ctx, a))

	pending, err := repo.ListPendingClassification(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].AnalysisID)
	assert.Equal(t, project.Description, pending[0].ProjectDescription)

	pending, err = repo.ListPendingClassification(ctx, 10, []string{a.ID})
	require.NoError(t, err)
	assert.Empty(t, pending)

	c := domain.DefaultClassification("marketing_digital")
	c.SEOIntent = domain.IntentCommercial
	require.NoError(t, repo.SaveTopics(ctx, &domain.AnalysisTopics{
		ID: uuid.NewString(), AnalysisID: a.ID, Classification: c, CreatedAt: now(),
	}))

	pending, err = repo.ListPendingClassification(ctx, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, pending)

	results, err := repo.ListClassificationsByProject(ctx, project.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.IntentCommercial, results[0].SEOIntent)
	assert.Equal(t, "marketing_digital", results[0].Sector)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	project := seedProject(ctx, t, pool)
	model := seedModel(ctx, t, pool, "m", true)
	prompt := seedPrompt(ctx, t, pool, project.ID, model)
	a := newAnalysis(project, prompt, model)

	boom := errors.New("boom")
	err := NewTxRunner(pool).WithTx(ctx, func(repos service.TxRepositories) error {
		if err := repos.Analyses().Create(ctx, a); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewAnalysisRepository(pool).GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)

	err = NewTxRunner(pool).WithTx(ctx, func(repos service.TxRepositories) error {
		if err := repos.Analyses().Create(ctx, a); err != nil {
			return err
		}
		return repos.Prompts().IncrementExecution(ctx, prompt.ID, now())
	})
	require.NoError(t, err)
	_, err = NewAnalysisRepository(pool).GetByID(ctx, a.ID)
	assert.NoError(t, err)
}
