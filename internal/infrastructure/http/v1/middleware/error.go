package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/pkg/logger"
)

// ErrorHandler renders the last error registered on the gin context as JSON.
// Internal causes are logged, never returned to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// Handler already wrote a response.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		var body gin.H

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			body = gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body = gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{
					"request_id": c.GetString("request_id"),
				},
			}
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

// failIdempotency stores the error response against the request's key so a
// retry replays it. Best effort.
func failIdempotency(c *gin.Context, status int, body gin.H) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return
	}
	s, ok := store.(IdempotencyStore)
	if !ok || s == nil {
		return
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	if err := s.FailKey(c.Request.Context(), key, status, "application/json", raw); err != nil {
		logger.Warn(c.Request.Context(), "idempotency fail-key", "key", key, "error", err)
	}
}
