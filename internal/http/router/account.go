package router

import (
	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/internal/http/handler"
)

// AccountRouter expects rg to carry the admin API key middleware.
func AccountRouter(rg *gin.RouterGroup, h *handler.AccountHandler) {
	rg.DELETE("/by-external-id/:externalId/hard-delete", h.HardDeleteByExternalID)
	rg.DELETE("/:email/hard-delete", h.HardDeleteByEmail)
}
