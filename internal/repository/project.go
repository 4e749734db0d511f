package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

type ProjectRepository struct {
	db dbtx
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: pool}
}

func NewProjectRepositoryWithTx(tx pgx.Tx) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

// Create inserts the project and its competitors in one batch.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	keywords := p.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO projects (id, name, main_website, description, sector, keywords, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.MainWebsite, p.Description, p.Sector, keywords, p.CreatedAt,
	)
	for i := range p.Competitors {
		c := &p.Competitors[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		batch.Queue(
			`INSERT INTO competitors (id, project_id, name, website, position) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, p.ID, c.Name, c.Website, i,
		)
	}

	return execBatch(ctx, r.db, batch)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRow(ctx,
		`SELECT id, name, main_website, description, sector, keywords, created_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.MainWebsite, &p.Description, &p.Sector, &p.Keywords, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	competitors, err := r.listCompetitors(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Competitors = competitors
	return &p, nil
}

func (r *ProjectRepository) listCompetitors(ctx context.Context, projectID string) ([]domain.Competitor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, website FROM competitors WHERE project_id = $1 ORDER BY position, name`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitors := []domain.Competitor{}
	for rows.Next() {
		var c domain.Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.Website); err != nil {
			return nil, err
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}
