package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrSheetTestMismatch is returned when a job names a test the sheet does not belong to.
var (
	ErrSheetTestMismatch = errors.New("sheet does not belong to test")
	ErrInvalidJob        = errors.New("invalid grade job")
)

// GradingService grades sheets against their test with a chosen scheme.
type GradingService struct {
	testService   *TestService
	schemeService *SchemeService
	sheetService  *SheetService
	resultRepo    *repository.ResultRepository
	rdb           *redis.Client
	workers       int
	log           zerolog.Logger
}

// NewGradingService creates a new GradingService. workers bounds the
// parallelism of GradeAll.
func NewGradingService(
	testService *TestService,
	schemeService *SchemeService,
	sheetService *SheetService,
	resultRepo *repository.ResultRepository,
	rdb *redis.Client,
	workers int,
	log zerolog.Logger,
) *GradingService {
	if workers < 1 {
		workers = 1
	}
	return &GradingService{
		testService:   testService,
		schemeService: schemeService,
		sheetService:  sheetService,
		resultRepo:    resultRepo,
		rdb:           rdb,
		workers:       workers,
		log:           log.With().Str("component", "grading_service").Logger(),
	}
}

// GradeMarks grades a mark grid against a list of groups.
func GradeMarks(scheme grading.Scheme, groups []model.QuestionGroupDef, marks model.MarkGrid) (grading.Report, error) {
	return scheme.Grade(marks, model.Structure(groups))
}

// BuildResult grades one stored sheet and wraps the report for persistence.
func BuildResult(scheme grading.Scheme, schemeID *uuid.UUID, test *model.Test, sheet *model.Sheet, gradedAt time.Time) (*model.GradeResult, error) {
	if sheet.TestID != test.ID {
		return nil, fmt.Errorf("%w: sheet %s, test %s", ErrSheetTestMismatch, sheet.ID, test.ID)
	}
	report, err := GradeMarks(scheme, test.Groups, sheet.Marks)
	if err != nil {
		return nil, fmt.Errorf("grade sheet %s: %w", sheet.ID, err)
	}
	return &model.GradeResult{
		SheetID:  sheet.ID,
		TestID:   test.ID,
		SchemeID: schemeID,
		Label:    sheet.Label,
		Total:    report.Total,
		Report:   report,
		GradedAt: gradedAt,
	}, nil
}

// Evaluate grades the sheet named by a job without persisting the result.
func (s *GradingService) Evaluate(ctx context.Context, job *model.GradeJob) (*model.GradeResult, error) {
	sheetID, err := uuid.Parse(job.SheetID)
	if err != nil {
		return nil, fmt.Errorf("%w: parse sheet id: %w", ErrInvalidJob, err)
	}

	sheet, err := s.sheetService.GetByID(ctx, sheetID)
	if err != nil {
		return nil, fmt.Errorf("load sheet: %w", err)
	}

	test, err := s.testService.GetByID(ctx, sheet.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	if job.TestID != "" && job.TestID != test.ID.String() {
		return nil, fmt.Errorf("%w: sheet %s, test %s", ErrSheetTestMismatch, sheet.ID, job.TestID)
	}

	scheme, schemeID, err := s.schemeService.Resolve(ctx, job.SchemeID)
	if err != nil {
		return nil, err
	}

	return BuildResult(scheme, schemeID, test, sheet, time.Now().UTC())
}

// GradeSheet grades one sheet synchronously, stores the result and notifies subscribers.
func (s *GradingService) GradeSheet(ctx context.Context, sheetID uuid.UUID, schemeID string) (*model.GradeResult, error) {
	res, err := s.Evaluate(ctx, &model.GradeJob{SheetID: sheetID.String(), SchemeID: schemeID})
	if err != nil {
		return nil, err
	}
	if err := s.resultRepo.Upsert(ctx, res); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	s.Publish(ctx, res)
	return res, nil
}

// Enqueue pushes a grading job for the background worker.
func (s *GradingService) Enqueue(ctx context.Context, job *model.GradeJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.GradeSheetsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// GradeAll grades every sheet of a test in parallel and stores the results in one batch.
func (s *GradingService) GradeAll(ctx context.Context, testID uuid.UUID, schemeID string) ([]*model.GradeResult, error) {
	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	scheme, storedID, err := s.schemeService.Resolve(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	sheets, err := s.sheetService.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}

	results := make([]*model.GradeResult, len(sheets))
	now := time.Now().UTC()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range sheets {
		g.Go(func() error {
			res, err := BuildResult(scheme, storedID, test, &sheets[i], now)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.resultRepo.BulkUpsert(ctx, results); err != nil {
		return nil, fmt.Errorf("store results: %w", err)
	}
	for _, res := range results {
		s.Publish(ctx, res)
	}

	s.log.Info().
		Str("test_id", testID.String()).
		Int("sheets", len(results)).
		Msg("Test graded")
	return results, nil
}

// Publish announces a stored result on the test's live channel.
func (s *GradingService) Publish(ctx context.Context, res *model.GradeResult) {
	payload, err := json.Marshal(res.Event())
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.TestResultsChannel(res.TestID.String()), payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("sheet_id", res.SheetID.String()).Msg("publish result failed")
	}
}

// ResultsByTest lists stored totals for a test.
func (s *GradingService) ResultsByTest(ctx context.Context, testID uuid.UUID) ([]model.GradeResult, error) {
	results, err := s.resultRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.GradeResult{}
	}
	return results, nil
}

// ResultBySheet returns the full stored report of a sheet.
func (s *GradingService) ResultBySheet(ctx context.Context, sheetID uuid.UUID) (*model.GradeResult, error) {
	return s.resultRepo.GetBySheet(ctx, sheetID)
}
