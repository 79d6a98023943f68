// Package respond maps service errors to HTTP responses.
package respond

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// Error writes a standardized error response, choosing the status code from
// the error's kind. Internal errors are logged here so handlers don't have
// to; the client gets the generic message, not the cause.
func Error(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, gin.H{
		"error":     apperr.Message(err),
		"kind":      kind.String(),
		"timestamp": time.Now().UTC(),
	})
}

// BadRequest writes a 400 with the given message, for request parsing
// failures that never reach the service layer.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     message,
		"kind":      apperr.KindValidation.String(),
		"timestamp": time.Now().UTC(),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
