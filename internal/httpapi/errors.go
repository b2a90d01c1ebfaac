package httpapi

import (
	"errors"
	"net/http"

	"speakai-platform/internal/apperr"
	"speakai-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. The body is always {"detail": ...}.
func respondError(c *gin.Context, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func classify(err error) (int, string) {
	if ue, ok := apperr.AsUpstream(err); ok {
		status := ue.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		return status, ue.Op + " failed: " + ue.Body
	}
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, apperr.Message(err)
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, apperr.Message(err)
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, apperr.Message(err)
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, apperr.Message(err)
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests, apperr.Message(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail})
}
