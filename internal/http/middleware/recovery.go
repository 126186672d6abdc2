package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
)

// Recovery converts a handler panic into the portal's JSON error shape and marks
// the request span as failed. The trace id is returned so support can find the log.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			ctx := c.Request.Context()
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()

			span := trace.SpanFromContext(ctx)
			span.SetStatus(codes.Error, "panic")
			span.RecordError(fmt.Errorf("panic: %v", rec))

			slog.ErrorContext(ctx, "handler panic",
				"panic", fmt.Sprint(rec),
				"route", route,
				"method", c.Request.Method,
				"stack", string(debug.Stack()),
			)

			body := gin.H{"error": "internal server error", "code": "internal_error"}
			if traceID := logger.TraceID(ctx); traceID != "" {
				body["traceId"] = traceID
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
