package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omrgrade/omr-backend/internal/model"
)

const schemeColumns = `id, name, correct_score, incorrect_score, default_score,
	multiple_selected_score, min_score, max_score, created_at`

// SchemeRepository handles grading scheme data access.
type SchemeRepository struct {
	pool *pgxpool.Pool
}

// NewSchemeRepository creates a new SchemeRepository.
func NewSchemeRepository(pool *pgxpool.Pool) *SchemeRepository {
	return &SchemeRepository{pool: pool}
}

func scanScheme(row pgx.Row) (*model.Scheme, error) {
	s := &model.Scheme{}
	err := row.Scan(&s.ID, &s.Name, &s.CorrectScore, &s.IncorrectScore, &s.DefaultScore,
		&s.MultipleSelectedScore, &s.MinScore, &s.MaxScore, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new scheme.
func (r *SchemeRepository) Create(ctx context.Context, s *model.Scheme) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO grading_schemes (name, correct_score, incorrect_score, default_score,
		                              multiple_selected_score, min_score, max_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.Name, s.CorrectScore, s.IncorrectScore, s.DefaultScore,
		s.MultipleSelectedScore, s.MinScore, s.MaxScore,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves a scheme by its UUID.
func (r *SchemeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Scheme, error) {
	return scanScheme(r.pool.QueryRow(ctx,
		`SELECT `+schemeColumns+` FROM grading_schemes WHERE id = $1`, id))
}

// List returns all schemes ordered by name.
func (r *SchemeRepository) List(ctx context.Context) ([]model.Scheme, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+schemeColumns+` FROM grading_schemes ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemes []model.Scheme
	for rows.Next() {
		s, err := scanScheme(rows)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, *s)
	}
	return schemes, rows.Err()
}

// Delete removes a scheme. Returns pgx.ErrNoRows if nothing was deleted.
func (r *SchemeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grading_schemes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
