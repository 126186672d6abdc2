package middleware

import (
	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/common/logger"
)

// TraceHeader echoes the request's trace ID in the named response header so
// callers can quote it when reporting a failure. Must run after otelgin.
func TraceHeader(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if name != "" {
			if traceID := logger.TraceID(c.Request.Context()); traceID != "" {
				c.Header(name, traceID)
			}
		}
		c.Next()
	}
}
