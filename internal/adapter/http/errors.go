package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thaijunny/fashion-be/internal/logging"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type fieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type errorResp struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

// statusOf maps use case error kinds to HTTP codes. Transaction failures are
// 500 unless the caller says otherwise.
func statusOf(err error, txStatus int) int {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrTransaction):
		return txStatus
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	respondErrorTx(c, err, http.StatusInternalServerError)
}

// respondErrorTx renders err as {success:false, message}. Unclassified errors
// are logged and hidden behind a generic message.
func respondErrorTx(c *gin.Context, err error, txStatus int) {
	_ = c.Error(err)
	status := statusOf(err, txStatus)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.From(c).Error("request failed", "error", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, errorResp{Message: msg})
}
