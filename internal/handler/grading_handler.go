package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/service"
)

// GradingHandler grades marks sent inline, without touching storage.
type GradingHandler struct {
	schemeService *service.SchemeService
	maxBodyBytes  int64
}

// NewGradingHandler creates a new GradingHandler. Request bodies are capped
// at maxBodyBytes, the same limit as sheet uploads.
func NewGradingHandler(schemeService *service.SchemeService, maxBodyBytes int64) *GradingHandler {
	return &GradingHandler{schemeService: schemeService, maxBodyBytes: maxBodyBytes}
}

// Grade godoc
// POST /api/v1/grade
// Scores a mark grid against the given groups. Uses the default scheme when
// the request carries none.
func (h *GradingHandler) Grade(c *gin.Context) {
	var req model.GradeRequest
	if !bindLimited(c, &req, h.maxBodyBytes) {
		return
	}

	if err := service.ValidateGroups(req.Groups); err != nil {
		failFromError(c, err)
		return
	}

	scheme := h.schemeService.Default()
	if req.Scheme != nil {
		var err error
		if scheme, err = req.Scheme.ToGrading(); err != nil {
			failFromError(c, err)
			return
		}
	}

	report, err := service.GradeMarks(scheme, req.Groups, model.MarkGrid(req.Marks))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.GradeResponse{
		Total:  report.Total,
		Counts: report.Counts(),
		Report: report,
	})
}
