package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const uniqueViolation = "23505"

const aiModelColumns = `id, name, provider, model_identifier, max_tokens, cost_per_1k_tokens, is_active`

type AIModelRepository struct {
	db dbtx
}

func NewAIModelRepository(pool *pgxpool.Pool) *AIModelRepository {
	return &AIModelRepository{db: pool}
}

func (r *AIModelRepository) Create(ctx context.Context, m *domain.AIModel) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_models (`+aiModelColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, string(m.Provider), m.ModelIdentifier, m.MaxTokens, m.CostPer1KTokens, m.IsActive,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAIModelAlreadyExists
	}
	return err
}

func (r *AIModelRepository) GetByID(ctx context.Context, id string) (*domain.AIModel, error) {
	m, err := scanAIModel(r.db.QueryRow(ctx,
		`SELECT `+aiModelColumns+` FROM ai_models WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAIModelNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *AIModelRepository) List(ctx context.Context) ([]*domain.AIModel, error) {
	rows, err := r.db.Query(ctx, `SELECT `+aiModelColumns+` FROM ai_models ORDER BY name`)
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

func scanAIModel(row pgx.Row) (*domain.AIModel, error) {
	var m domain.AIModel
	var provider string
	if err := row.Scan(&m.ID, &m.Name, &provider, &m.ModelIdentifier, &m.MaxTokens, &m.CostPer1KTokens, &m.IsActive); err != nil {
		return nil, err
	}
	m.Provider = domain.Provider(provider)
	return &m, nil
}
