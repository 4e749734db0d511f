//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/testutil"
)

func newTestPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	return testutil.NewMigratedPool(ctx, t, "../../migrations")
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func seedProject(ctx context.Context, t *testing.T, pool *pgxpool.Pool) *domain.Project {
	p := &domain.Project{
		ID:          uuid.NewString(),
		Name:        "MyBrand",
		MainWebsite: "https://mybrand.com",
		Description: "Agence de marketing digital",
		Keywords:    []string{"crm", "sales"},
		Competitors: []domain.Competitor{
			{Name: "Rival", Website: "rival.com"},
			{Name: "Other", Website: "other.io"},
		},
		CreatedAt: now(),
	}
	require.NoError(t, NewProjectRepository(pool).Create(ctx, p))
	return p
}

func seedModel(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string, active bool) *domain.AIModel {
	m := &domain.AIModel{
		ID:              uuid.NewString(),
		Name:            name,
		Provider:        domain.ProviderOpenAI,
		ModelIdentifier: "gpt-4o",
		MaxTokens:       2000,
		CostPer1KTokens: 0.01,
		IsActive:        active,
	}
	require.NoError(t, NewAIModelRepository(pool).Create(ctx, m))
	return m
}

func seedPrompt(ctx context.Context, t *testing.T, pool *pgxpool.Pool, projectID string, model *domain.AIModel, models ...*domain.AIModel) *domain.Prompt {
	p := &domain.Prompt{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		Name:         "best crm",
		Template:     "What is the best CRM like {project_name}?",
		IsActive:     true,
		IsMultiAgent: len(models) > 0,
		Model:        model,
		Models:       models,
		CreatedAt:    now(),
	}
	require.NoError(t, NewPromptRepository(pool).Create(ctx, p))
	return p
}
