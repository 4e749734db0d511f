//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

func TestPromptRepository_GetWithRelations(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	project := seedProject(ctx, t, pool)
	single := seedModel(ctx, t, pool, "single", true)
	m2 := seedModel(ctx, t, pool, "zeta", true)
	m1 := seedModel(ctx, t, pool, "alpha", false)
	prompt := seedPrompt(ctx, t, pool, project.ID, single, m2, m1)

	got, err := NewPromptRepository(pool).GetWithRelations(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, prompt.Template, got.Template)
	assert.True(t, got.IsMultiAgent)
	require.NotNil(t, got.Project)
	assert.Equal(t, "MyBrand", got.Project.Name)
	assert.Len(t, got.Project.Competitors, 2)
	require.NotNil(t, got.Model)
	assert.Equal(t, single.ID, got.Model.ID)
	require.Len(t, got.Models, 2)
	assert.Equal(t, m2.ID, got.Models[0].ID)
	assert.Equal(t, m1.ID, got.Models[1].ID)
	assert.Len(t, got.ActiveModels(), 1)
}

func TestPromptRepository_GetWithRelations_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	_, err := NewPromptRepository(pool).GetWithRelations(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)
}

func TestPromptRepository_ListActiveIDsByProject(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewPromptRepository(pool)

	project := seedProject(ctx, t, pool)
	model := seedModel(ctx, t, pool, "m", true)
	active := seedPrompt(ctx, t, pool, project.ID, model)
	inactive := &domain.Prompt{
		ID: uuid.NewString(), ProjectID: project.ID, Name: "off", Template: "x", CreatedAt: now(),
	}
	require.NoError(t, repo.Create(ctx, inactive))

	ids, err := repo.ListActiveIDsByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{active.ID}, ids)

	ids, err = repo.ListActiveIDsByProject(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPromptRepository_IncrementExecution(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewPromptRepository(pool)

	project := seedProject(ctx, t, pool)
	prompt := seedPrompt(ctx, t, pool, project.ID, seedModel(ctx, t, pool, "m", true))

	at := now()
	require.NoError(t, repo.IncrementExecution(ctx, prompt.ID, at))
	require.NoError(t, repo.IncrementExecution(ctx, prompt.ID, at))

	got, err := repo.GetWithRelations(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ExecutionCount)
	require.NotNil(t, got.LastExecutedAt)
	assert.True(t, at.Equal(*got.LastExecutedAt))

	err = repo.IncrementExecution(ctx, uuid.NewString(), at)
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)
}
