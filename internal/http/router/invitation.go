package router

import (
	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/internal/http/handler"
)

// InvitationRouter sets up invitation routes
// - validate and accept are public and rate limited per client IP
// - create, revoke and list require the admin API key
func InvitationRouter(rg *gin.RouterGroup, admin, rateLimit gin.HandlerFunc, h *handler.InvitationHandler) {
	public := rg.Group("", rateLimit)
	{
		public.POST("/validate", h.Validate)
		public.POST("/accept", h.Accept)
	}

	protected := rg.Group("", admin)
	{
		protected.POST("/create", h.Create)
		protected.DELETE("/:id", h.Revoke)
		protected.GET("/list/:organizationId", h.ListByOrganization)
	}
}
