package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

type PromptRepository struct {
	db dbtx
}

func NewPromptRepository(pool *pgxpool.Pool) *PromptRepository {
	return &PromptRepository{db: pool}
}

func NewPromptRepositoryWithTx(tx pgx.Tx) *PromptRepository {
	return &PromptRepository{db: tx}
}

// Create inserts the prompt, its single model reference and its model
// associations in the order of p.Models.
func (r *PromptRepository) Create(ctx context.Context, p *domain.Prompt) error {
	var modelID *string
	if p.Model != nil {
		modelID = nullableString(p.Model.ID)
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO prompts (id, project_id, name, template, is_active, is_multi_agent, ai_model_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ProjectID, p.Name, p.Template, p.IsActive, p.IsMultiAgent, modelID, p.CreatedAt,
	)
	for i, m := range p.Models {
		batch.Queue(
			`INSERT INTO prompt_ai_models (prompt_id, ai_model_id, position) VALUES ($1, $2, $3)`,
			p.ID, m.ID, i,
		)
	}

	return execBatch(ctx, r.db, batch)
}

func (r *PromptRepository) GetWithRelations(ctx context.Context, id string) (*domain.Prompt, error) {
	var p domain.Prompt
	var modelID *string
	err := r.db.QueryRow(ctx,
		`SELECT id, project_id, name, template, is_active, is_multi_agent, ai_model_id,
		        execution_count, last_executed_at, created_at
		 FROM prompts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.Template, &p.IsActive, &p.IsMultiAgent, &modelID,
		&p.ExecutionCount, &p.LastExecutedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, err
	}

	projects := &ProjectRepository{db: r.db}
	p.Project, err = projects.GetByID(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}

	if modelID != nil {
		models := &AIModelRepository{db: r.db}
		p.Model, err = models.GetByID(ctx, *modelID)
		if err != nil && !errors.Is(err, domain.ErrAIModelNotFound) {
			return nil, err
		}
	}

	p.Models, err = r.listModels(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromptRepository) listModels(ctx context.Context, promptID string) ([]*domain.AIModel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.id, m.name, m.provider, m.model_identifier, m.max_tokens, m.cost_per_1k_tokens, m.is_active
		 FROM prompt_ai_models pm
		 JOIN ai_models m ON m.id = pm.ai_model_id
		 WHERE pm.prompt_id = $1
		 ORDER BY pm.position, m.name`,
		promptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []*domain.AIModel
	for rows.Next() {
		m, err := scanAIModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func (r *PromptRepository) ListActiveIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM prompts WHERE project_id = $1 AND is_active ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PromptRepository) IncrementExecution(ctx context.Context, id string, at time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE prompts SET execution_count = execution_count + 1, last_executed_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPromptNotFound
	}
	return nil
}
