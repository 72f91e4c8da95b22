package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/validator"
)

// bindLimited binds a JSON body of at most limit bytes into dst. On failure
// it writes the error response (413 for oversized bodies, known length or
// not) and returns false.
func bindLimited(c *gin.Context, dst interface{}, limit int64) bool {
	if c.Request.ContentLength > limit {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrSheetTooLarge)
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrSheetTooLarge)
			return false
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return false
	}
	return true
}
