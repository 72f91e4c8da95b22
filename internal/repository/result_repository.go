package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omrgrade/omr-backend/internal/model"
)

// ResultRepository handles graded result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Upsert stores one result and marks its sheet as graded.
func (r *ResultRepository) Upsert(ctx context.Context, res *model.GradeResult) error {
	report, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO grade_results (sheet_id, test_id, scheme_id, total, report, graded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (sheet_id) DO UPDATE
		 SET scheme_id = EXCLUDED.scheme_id, total = EXCLUDED.total,
		     report = EXCLUDED.report, graded_at = EXCLUDED.graded_at`,
		res.SheetID, res.TestID, res.SchemeID, res.Total, report, res.GradedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE sheets SET status = 'GRADED' WHERE id = $1`, res.SheetID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// BulkUpsert stores a batch of results in one statement using UNNEST.
func (r *ResultRepository) BulkUpsert(ctx context.Context, batch []*model.GradeResult) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	sheetIDs := make([]uuid.UUID, 0, n)
	testIDs := make([]uuid.UUID, 0, n)
	schemeIDs := make([]pgtype.UUID, 0, n)
	totals := make([]float64, 0, n)
	reports := make([]string, 0, n)
	gradedAts := make([]time.Time, 0, n)

	for _, res := range batch {
		report, err := json.Marshal(res.Report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		sheetIDs = append(sheetIDs, res.SheetID)
		testIDs = append(testIDs, res.TestID)
		schemeID := pgtype.UUID{}
		if res.SchemeID != nil {
			schemeID = pgtype.UUID{Bytes: *res.SchemeID, Valid: true}
		}
		schemeIDs = append(schemeIDs, schemeID)
		totals = append(totals, res.Total)
		reports = append(reports, string(report))
		gradedAts = append(gradedAts, res.GradedAt)
	}

	query := `
		WITH input AS (
			SELECT *
			FROM UNNEST(
				$1::uuid[],
				$2::uuid[],
				$3::uuid[],
				$4::float8[],
				$5::jsonb[],
				$6::timestamptz[]
			) AS u (sheet_id, test_id, scheme_id, total, report, graded_at)
		), upserted AS (
			INSERT INTO grade_results (sheet_id, test_id, scheme_id, total, report, graded_at)
			SELECT sheet_id, test_id, scheme_id, total, report, graded_at FROM input
			ON CONFLICT (sheet_id) DO UPDATE
			SET scheme_id = EXCLUDED.scheme_id, total = EXCLUDED.total,
			    report = EXCLUDED.report, graded_at = EXCLUDED.graded_at
			RETURNING sheet_id
		)
		UPDATE sheets AS s
		SET status = 'GRADED'
		FROM upserted
		WHERE s.id = upserted.sheet_id
	`

	_, err := r.pool.Exec(ctx, query, sheetIDs, testIDs, schemeIDs, totals, reports, gradedAts)
	return err
}

// GetBySheet retrieves the result of one sheet.
func (r *ResultRepository) GetBySheet(ctx context.Context, sheetID uuid.UUID) (*model.GradeResult, error) {
	res := &model.GradeResult{}
	var report []byte
	err := r.pool.QueryRow(ctx,
		`SELECT g.sheet_id, g.test_id, g.scheme_id, s.label, g.total, g.report, g.graded_at
		 FROM grade_results g JOIN sheets s ON s.id = g.sheet_id
		 WHERE g.sheet_id = $1`, sheetID,
	).Scan(&res.SheetID, &res.TestID, &res.SchemeID, &res.Label, &res.Total, &report, &res.GradedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(report, &res.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return res, nil
}

// ListByTest returns all results of a test without the per-question breakdown.
func (r *ResultRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.GradeResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.sheet_id, g.test_id, g.scheme_id, s.label, g.total, g.graded_at
		 FROM grade_results g JOIN sheets s ON s.id = g.sheet_id
		 WHERE g.test_id = $1 ORDER BY s.label ASC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.GradeResult
	for rows.Next() {
		var res model.GradeResult
		if err := rows.Scan(&res.SheetID, &res.TestID, &res.SchemeID, &res.Label, &res.Total, &res.GradedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
