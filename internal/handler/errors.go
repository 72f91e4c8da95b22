package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/service"
)

// failFromError maps service and storage errors to an API error response.
func failFromError(c *gin.Context, err error) {
	status, code := classifyError(err)
	response.Fail(c, status, code)
}

func classifyError(err error) (int, response.ErrCode) {
	var pgErr *pgconn.PgError

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrInvalidScheme),
		errors.Is(err, grading.ErrInvertedBounds),
		errors.Is(err, grading.ErrNotANumber):
		return http.StatusBadRequest, response.ErrInvalidScheme
	case errors.Is(err, service.ErrInvalidAnswerKey):
		return http.StatusBadRequest, response.ErrInvalidKey
	case errors.Is(err, grading.ErrQuestionOutOfRange):
		return http.StatusUnprocessableEntity, response.ErrQuestionRange
	case errors.Is(err, service.ErrSheetTestMismatch):
		return http.StatusBadRequest, response.ErrInvalidPayload
	case errors.As(err, &pgErr) && pgErr.Code == "23505": // Unique violation
		return http.StatusConflict, response.ErrConflict
	case errors.As(err, &pgErr) && pgErr.Code == "23503": // Foreign key violation
		return http.StatusConflict, response.ErrDependencyExists
	}
	return http.StatusInternalServerError, response.ErrInternal
}
