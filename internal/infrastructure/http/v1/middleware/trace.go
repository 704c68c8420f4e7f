package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "pharmaledger/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace echoes X-Request-ID and X-Trace-ID, generating them when absent,
// and stores them on the request context.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := appctx.NewTrace(c.GetHeader(HeaderTraceID), c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), t))

		c.Set("trace_id", t.TraceID)
		c.Set("request_id", t.RequestID)
		c.Header(HeaderRequestID, t.RequestID)
		c.Header(HeaderTraceID, t.TraceID)

		c.Next()
	}
}
