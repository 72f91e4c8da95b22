package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omrgrade/omr-backend/internal/model"
)

// TestRepository handles answer key data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// Create inserts a new test with its groups stored as JSONB.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	groups, err := json.Marshal(t.Groups)
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (name, groups, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		t.Name, groups, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt)
}

// GetByID retrieves a test by its UUID.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	var groups []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, groups, created_by, created_at FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &groups, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(groups, &t.Groups); err != nil {
		return nil, fmt.Errorf("unmarshal groups: %w", err)
	}
	return t, nil
}

// List returns a page of tests, newest first, plus the total count.
func (r *TestRepository) List(ctx context.Context, limit, offset int) ([]model.Test, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tests`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, groups, created_by, created_at FROM tests
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		var groups []byte
		if err := rows.Scan(&t.ID, &t.Name, &groups, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(groups, &t.Groups); err != nil {
			return nil, 0, fmt.Errorf("unmarshal groups: %w", err)
		}
		tests = append(tests, t)
	}
	return tests, total, rows.Err()
}
