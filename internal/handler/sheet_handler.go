package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/omrgrade/omr-backend/internal/validator"
	"github.com/rs/zerolog"
)

// SheetHandler handles sheet upload and result endpoints.
type SheetHandler struct {
	sheetService   *service.SheetService
	gradingService *service.GradingService
	maxSheetBytes  int64
	log            zerolog.Logger
}

// NewSheetHandler creates a new SheetHandler.
func NewSheetHandler(sheetService *service.SheetService, gradingService *service.GradingService, maxSheetBytes int64, log zerolog.Logger) *SheetHandler {
	return &SheetHandler{
		sheetService:   sheetService,
		gradingService: gradingService,
		maxSheetBytes:  maxSheetBytes,
		log:            log.With().Str("component", "sheet_handler").Logger(),
	}
}

// Submit godoc
// POST /api/v1/tests/:id/sheets[?sync=true]
// Stores a scanned sheet and queues it for grading. With sync=true the sheet
// is graded in the request and the result is returned.
func (h *SheetHandler) Submit(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitSheetRequest
	if !bindLimited(c, &req, h.maxSheetBytes) {
		return
	}

	ctx := c.Request.Context()
	sheet, err := h.sheetService.Submit(ctx, testID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	if c.Query("sync") == "true" {
		res, err := h.gradingService.GradeSheet(ctx, sheet.ID, req.SchemeID)
		if err != nil {
			failFromError(c, err)
			return
		}
		response.Success(c, http.StatusCreated, gin.H{"sheet": sheet, "result": res})
		return
	}

	job := &model.GradeJob{SheetID: sheet.ID.String(), TestID: testID.String(), SchemeID: req.SchemeID}
	if err := h.gradingService.Enqueue(ctx, job); err != nil {
		// The sheet stays PENDING and is picked up by the next grade-all.
		h.log.Error().Err(err).Str("sheet_id", sheet.ID.String()).Msg("Failed to enqueue grading job")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrQueueUnavailable)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"sheet": sheet})
}

// List godoc
// GET /api/v1/tests/:id/sheets
func (h *SheetHandler) List(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sheets, err := h.sheetService.ListByTest(c.Request.Context(), testID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sheets": sheets})
}

// GradeAll godoc
// POST /api/v1/tests/:id/grade-all
// Grades every sheet of a test with the given or default scheme.
func (h *SheetHandler) GradeAll(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeAllRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	results, err := h.gradingService.GradeAll(c.Request.Context(), testID, req.SchemeID)
	if err != nil {
		h.log.Error().Err(err).Str("test_id", testID.String()).Msg("Grade all failed")
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"graded":  len(results),
		"results": results,
	})
}

// Results godoc
// GET /api/v1/tests/:id/results
func (h *SheetHandler) Results(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.gradingService.ResultsByTest(c.Request.Context(), testID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// SheetResult godoc
// GET /api/v1/sheets/:id/result
// Returns the stored report of a sheet, per group and per question.
func (h *SheetHandler) SheetResult(c *gin.Context) {
	sheetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.gradingService.ResultBySheet(c.Request.Context(), sheetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotGraded)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}
