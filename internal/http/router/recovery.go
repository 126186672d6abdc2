package router

import (
	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/internal/http/handler"
)

func RecoveryRouter(rg *gin.RouterGroup, admin gin.HandlerFunc, h *handler.RecoveryHandler) {
	rg.POST("/validate", h.Validate)
	rg.POST("/stage", admin, h.Stage)
}
