package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for question ordering.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListQuestionsForTemplate loads every question under every section of the
// template, inactive records included.
func (r *Repository) ListQuestionsForTemplate(ctx context.Context, templateID uuid.UUID) ([]Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.section_id, q.position, q.active, q.created_at
		 FROM questions q
		 JOIN sections s ON s.id = q.section_id
		 WHERE s.template_id = $1`, templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("ordering: list questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.SectionID, &q.Position, &q.Active, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("ordering: scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ordering: list rows: %w", err)
	}
	return questions, nil
}

// ListTemplateIDs returns every template id, for the nightly sweep.
func (r *Repository) ListTemplateIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ordering: list templates: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ordering: scan template: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ordering: template rows: %w", err)
	}
	return ids, nil
}

// UpdatePositions applies the queued writes as one batch.
func (r *Repository) UpdatePositions(ctx context.Context, updates []PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(`UPDATE questions SET position = $2 WHERE id = $1`, u.ID, u.Position)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("ordering: update position: %w", err)
		}
	}
	return nil
}
