package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/recoupio/recoup/internal/httputil"
	"github.com/recoupio/recoup/internal/metrics"
	"github.com/recoupio/recoup/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// badRequest errors map user input mistakes to 400 instead of 500.
var badRequest = []error{
	models.ErrMissingDate,
	models.ErrInvalidRange,
	models.ErrInvalidBucket,
	models.ErrInvalidMode,
	models.ErrEmptyUpdate,
	models.ErrInvalidStatus,
}

// isBadRequest reports whether err stems from caller input.
func isBadRequest(err error) bool {
	for _, sentinel := range badRequest {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}
