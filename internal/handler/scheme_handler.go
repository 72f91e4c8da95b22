package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/omrgrade/omr-backend/internal/validator"
)

// SchemeHandler handles grading scheme endpoints.
type SchemeHandler struct {
	schemeService *service.SchemeService
}

// NewSchemeHandler creates a new SchemeHandler.
func NewSchemeHandler(schemeService *service.SchemeService) *SchemeHandler {
	return &SchemeHandler{schemeService: schemeService}
}

// GetDefault godoc
// GET /api/v1/schemes/default
// Returns the scheme used when no stored scheme is selected.
func (h *SchemeHandler) GetDefault(c *gin.Context) {
	scheme := model.SchemeFromGrading("default", h.schemeService.Default())
	response.Success(c, http.StatusOK, gin.H{"scheme": scheme})
}

// List godoc
// GET /api/v1/schemes
func (h *SchemeHandler) List(c *gin.Context) {
	schemes, err := h.schemeService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if schemes == nil {
		schemes = []model.Scheme{}
	}

	response.Success(c, http.StatusOK, gin.H{"schemes": schemes})
}

// Create godoc
// POST /api/v1/schemes
// Stores a named scheme. Inverted bounds are rejected.
func (h *SchemeHandler) Create(c *gin.Context) {
	var req model.CreateSchemeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	scheme, err := h.schemeService.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"scheme": scheme})
}

// Get godoc
// GET /api/v1/schemes/:id
func (h *SchemeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	scheme, err := h.schemeService.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"scheme": scheme})
}

// Delete godoc
// DELETE /api/v1/schemes/:id
// Fails with DEPENDENCY_EXISTS while stored results still reference the scheme.
func (h *SchemeHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.schemeService.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Scheme deleted"})
}
