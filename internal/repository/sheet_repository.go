package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omrgrade/omr-backend/internal/model"
)

// SheetRepository handles scanned sheet data access.
type SheetRepository struct {
	pool *pgxpool.Pool
}

// NewSheetRepository creates a new SheetRepository.
func NewSheetRepository(pool *pgxpool.Pool) *SheetRepository {
	return &SheetRepository{pool: pool}
}

// Create inserts a new sheet in PENDING state.
func (r *SheetRepository) Create(ctx context.Context, s *model.Sheet) error {
	marks, err := json.Marshal(s.Marks)
	if err != nil {
		return fmt.Errorf("marshal marks: %w", err)
	}
	s.Status = model.SheetStatusPending
	return r.pool.QueryRow(ctx,
		`INSERT INTO sheets (test_id, label, marks, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		s.TestID, s.Label, marks, s.Status,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves a sheet with its marks.
func (r *SheetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Sheet, error) {
	s := &model.Sheet{}
	var marks []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, label, marks, status, created_at FROM sheets WHERE id = $1`, id,
	).Scan(&s.ID, &s.TestID, &s.Label, &marks, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(marks, &s.Marks); err != nil {
		return nil, fmt.Errorf("unmarshal marks: %w", err)
	}
	return s, nil
}

// ListByTest returns every sheet of a test in upload order.
func (r *SheetRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Sheet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, label, marks, status, created_at FROM sheets
		 WHERE test_id = $1 ORDER BY created_at ASC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []model.Sheet
	for rows.Next() {
		var s model.Sheet
		var marks []byte
		if err := rows.Scan(&s.ID, &s.TestID, &s.Label, &marks, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(marks, &s.Marks); err != nil {
			return nil, fmt.Errorf("unmarshal marks: %w", err)
		}
		sheets = append(sheets, s)
	}
	return sheets, rows.Err()
}
