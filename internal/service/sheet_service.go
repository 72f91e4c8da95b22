package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
)

// SheetService stores scanned sheets.
type SheetService struct {
	sheetRepo   *repository.SheetRepository
	testService *TestService
}

// NewSheetService creates a new SheetService.
func NewSheetService(sheetRepo *repository.SheetRepository, testService *TestService) *SheetService {
	return &SheetService{sheetRepo: sheetRepo, testService: testService}
}

// Submit stores a sheet for an existing test. The mark grid is stored as
// scanned; cells the test layout never reads are ignored at grading time.
func (s *SheetService) Submit(ctx context.Context, testID uuid.UUID, req *model.SubmitSheetRequest) (*model.Sheet, error) {
	if _, err := s.testService.GetByID(ctx, testID); err != nil {
		return nil, err
	}

	sheet := &model.Sheet{TestID: testID, Label: req.Label, Marks: req.Marks}
	if err := s.sheetRepo.Create(ctx, sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}

// GetByID retrieves a sheet.
func (s *SheetService) GetByID(ctx context.Context, id uuid.UUID) (*model.Sheet, error) {
	return s.sheetRepo.GetByID(ctx, id)
}

// ListByTest returns every sheet uploaded for a test.
func (s *SheetService) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Sheet, error) {
	sheets, err := s.sheetRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if sheets == nil {
		sheets = []model.Sheet{}
	}
	return sheets, nil
}
