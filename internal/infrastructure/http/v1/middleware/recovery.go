// Package middleware provides the gin middleware chain of the ledger API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/pkg/logger"
)

// Recovery converts a handler panic into an INTERNAL_ERROR. It must sit
// inside ErrorHandler so the error still gets rendered.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"panic", r,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", r)).
				WithDetail("request_id", c.GetString("request_id"))
			_ = c.Error(appErr)
			c.Abort()
		}()
		c.Next()
	}
}
