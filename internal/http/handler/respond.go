package handler

import (
	"github.com/gin-gonic/gin"
)

// errorResponder writes {error, code} bodies and, outside production, the
// underlying error text as details.
type errorResponder struct {
	isProduction bool
}

func (r errorResponder) fail(c *gin.Context, status int, code, message string, err error) {
	body := gin.H{"error": message}
	if code != "" {
		body["code"] = code
	}
	if err != nil && !r.isProduction {
		body["details"] = err.Error()
	}
	c.JSON(status, body)
}
