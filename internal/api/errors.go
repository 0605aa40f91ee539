package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"checkin/internal/metrics"
	"checkin/internal/student"
)

// statusFor maps lifecycle errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, student.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, student.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, student.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, student.ErrDuplicateQRCode):
		return http.StatusConflict, "duplicate_qr"
	case errors.Is(err, student.ErrExternalService):
		return http.StatusBadGateway, "external"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(c *gin.Context, err error) {
	status, reason := statusFor(err)
	metrics.Rejections.WithLabelValues(reason).Inc()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"error":   student.Message(err),
		"code":    reason,
		"details": err.Error(),
	})
}
