package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosslens/crosslens-go/internal/analytics"
	"github.com/crosslens/crosslens-go/internal/utils"
)

// ErrorResponse is the JSON body returned for all handler failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps the analytics error taxonomy onto HTTP status codes.
// Computation problems are the client's data, not server faults, so they
// surface as 422 rather than 500.
func respondError(c *gin.Context, err error) {
	var (
		validationErr   *utils.ValidationError
		insufficientErr *analytics.InsufficientDataError
		undefinedErr    *analytics.UndefinedCorrelationError
		historyErr      *analytics.InsufficientHistoryError
		timeoutErr      *analytics.ComputationTimeoutError
		corruptionErr   *analytics.CacheCorruptionError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "insufficient_data"})
	case errors.As(err, &undefinedErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "undefined_correlation"})
	case errors.As(err, &historyErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "insufficient_history"})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "computation_timeout"})
	case errors.As(err, &corruptionErr):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "cache_corruption"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "internal_error"})
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_request"})
}
