package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// quietRoutes are health and scrape endpoints logged at debug level only.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logger writes one line per request. Query strings are never logged because
// invitation links carry their token there.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			attrs = append(attrs, "errors", errs.String())
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietRoutes[route]:
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "http request", attrs...)
	}
}
