package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

type AnalysisRepository struct {
	db dbtx
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: pool}
}

func NewAnalysisRepositoryWithTx(tx pgx.Tx) *AnalysisRepository {
	return &AnalysisRepository{db: tx}
}

// Create inserts the analysis and one row per configured competitor.
func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	vis := a.Visibility
	if vis == nil {
		vis = domain.NewEmptyVisibilityResult("")
	}
	results, err := json.Marshal(vis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis results: %w", err)
	}
	vars := a.VariablesUsed
	if vars == nil {
		vars = map[string]string{}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to encode variables: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO analyses (id, prompt_id, project_id, ai_model_id, prompt_executed, ai_response, variables_used,
		                       brand_mentioned, website_mentioned, website_linked, ranking_position, visibility_score,
		                       analysis_results, ai_model_used, tokens_used, processing_time_ms, cost_estimated,
		                       web_search_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		a.ID, a.PromptID, a.ProjectID, nullableString(a.AIModelID), a.PromptExecuted, a.AIResponse, varsJSON,
		vis.BrandMentioned, vis.WebsiteMentioned, vis.WebsiteLinked, vis.RankingPosition, vis.VisibilityScore,
		results, a.AIModelUsed, a.TokensUsed, a.ProcessingTimeMS, a.CostEstimated,
		a.WebSearchUsed, a.CreatedAt,
	)
	for _, c := range a.Competitors() {
		batch.Queue(
			`INSERT INTO analysis_competitors (analysis_id, competitor_name, is_mentioned, mention_count, mention_context)
			 VALUES ($1, $2, $3, $4, $5)`,
			a.ID, c.CompetitorName, c.IsMentioned, c.MentionCount, c.MentionContext,
		)
	}
	return execBatch(ctx, r.db, batch)
}

func (r *AnalysisRepository) CreateSources(ctx context.Context, analysisID string, sources []domain.Source) error {
	if len(sources) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range sources {
		batch.Queue(
			`INSERT INTO analysis_sources (analysis_id, url, domain, base_domain, title, snippet, citation_label, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			analysisID, s.URL, s.Domain, s.BaseDomain, s.Title, s.Snippet, s.CitationLabel, s.Position,
		)
	}
	return execBatch(ctx, r.db, batch)
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	var a domain.Analysis
	var modelID *string
	var vars, results []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, prompt_id, project_id, ai_model_id, prompt_executed, ai_response, variables_used,
		        analysis_results, ai_model_used, tokens_used, processing_time_ms, cost_estimated,
		        web_search_used, created_at
		 FROM analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.PromptID, &a.ProjectID, &modelID, &a.PromptExecuted, &a.AIResponse, &vars,
		&results, &a.AIModelUsed, &a.TokensUsed, &a.ProcessingTimeMS, &a.CostEstimated,
		&a.WebSearchUsed, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnalysisNotFound
		}
		return nil, err
	}
	a.AIModelID = stringValue(modelID)
	if err := json.Unmarshal(vars, &a.VariablesUsed); err != nil {
		return nil, fmt.Errorf("failed to decode variables of analysis %s: %w", id, err)
	}
	a.Visibility = &domain.VisibilityResult{}
	if err := json.Unmarshal(results, a.Visibility); err != nil {
		return nil, fmt.Errorf("failed to decode results of analysis %s: %w", id, err)
	}
	return &a, nil
}

func (r *AnalysisRepository) ListSources(ctx context.Context, analysisID string) ([]domain.Source, error) {
	rows, err := r.db.Query(ctx,
		`SELECT url, domain, base_domain, title, snippet, citation_label, position
		 FROM analysis_sources WHERE analysis_id = $1 ORDER BY position, id`,
		analysisID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []domain.Source{}
	for rows.Next() {
		var s domain.Source
		if err := rows.Scan(&s.URL, &s.Domain, &s.BaseDomain, &s.Title, &s.Snippet, &s.CitationLabel, &s.Position); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// ListPendingClassification returns the oldest analyses without topics,
// leaving out the ids in skip.
func (r *AnalysisRepository) ListPendingClassification(ctx context.Context, limit int, skip []string) ([]*domain.PendingClassification, error) {
	if skip == nil {
		skip = []string{}
	}
	rows, err := r.db.Query(ctx,
		`SELECT a.id, p.sector, p.description, a.prompt_executed, a.ai_response
		 FROM analyses a
		 JOIN projects p ON p.id = a.project_id
		 LEFT JOIN analysis_topics t ON t.analysis_id = a.id
		 WHERE t.id IS NULL AND a.id <> ALL($2::uuid[])
		 ORDER BY a.created_at
		 LIMIT $1`,
		limit, skip,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*domain.PendingClassification
	for rows.Next() {
		var pc domain.PendingClassification
		if err := rows.Scan(&pc.AnalysisID, &pc.ProjectSector, &pc.ProjectDescription, &pc.PromptExecuted, &pc.AIResponse); err != nil {
			return nil, err
		}
		pending = append(pending, &pc)
	}
	return pending, rows.Err()
}

// SaveTopics stores the classification of an analysis, replacing any
// previous one.
func (r *AnalysisRepository) SaveTopics(ctx context.Context, t *domain.AnalysisTopics) error {
	c := t.Classification
	if c == nil {
		return fmt.Errorf("analysis %s: classification is required", t.AnalysisID)
	}
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode classification: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO analysis_topics (id, analysis_id, seo_intent, seo_confidence, content_type, global_confidence,
		                              sector, classification, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (analysis_id) DO UPDATE SET
		   seo_intent = EXCLUDED.seo_intent,
		   seo_confidence = EXCLUDED.seo_confidence,
		   content_type = EXCLUDED.content_type,
		   global_confidence = EXCLUDED.global_confidence,
		   sector = EXCLUDED.sector,
		   classification = EXCLUDED.classification,
		   created_at = EXCLUDED.created_at`,
		t.ID, t.AnalysisID, string(c.SEOIntent), c.SEOConfidence, c.ContentType, c.GlobalConfidence,
		c.Sector, body, t.CreatedAt,
	)
	return err
}

// ListClassificationsByProject returns the latest classifications of a
// project, newest first.
func (r *AnalysisRepository) ListClassificationsByProject(ctx context.Context, projectID string, limit int) ([]*domain.ClassificationResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.classification
		 FROM analysis_topics t
		 JOIN analyses a ON a.id = t.analysis_id
		 WHERE a.project_id = $1
		 ORDER BY t.created_at DESC
		 LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*domain.ClassificationResult{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var c domain.ClassificationResult
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, fmt.Errorf("failed to decode classification: %w", err)
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func execBatch(ctx context.Context, db dbtx, batch *pgx.Batch) error {
	br := db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}
