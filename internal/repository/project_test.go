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

func TestProjectRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	project := seedProject(ctx, t, pool)

	retrieved, err := NewProjectRepository(pool).GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, retrieved.Name)
	assert.Equal(t, project.MainWebsite, retrieved.MainWebsite)
	assert.Equal(t, []string{"crm", "sales"}, retrieved.Keywords)
	require.Len(t, retrieved.Competitors, 2)
	assert.Equal(t, "Rival", retrieved.Competitors[0].Name)
	assert.Equal(t, "other.io", retrieved.Competitors[1].Website)
	assert.True(t, project.CreatedAt.Equal(retrieved.CreatedAt))
}

func TestProjectRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	_, err := NewProjectRepository(pool).GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}
