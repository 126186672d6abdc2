package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/internal/http/handler"
	"funnelhq.app/portal/internal/http/handler/webhook"
	"funnelhq.app/portal/internal/http/middleware"
	"funnelhq.app/portal/internal/service"
	verifier "funnelhq.app/portal/internal/webhook"
)

const DefaultInviteRatePerMinute = 30

type RouterConfig struct {
	IsProduction  bool
	AdminAPIKey   string
	Verifier      *verifier.Verifier
	InviteLimiter *middleware.IPRateLimiter
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		if cfg.Ready != nil {
			if err := cfg.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	admin := middleware.RequireAdminAPIKey(cfg.AdminAPIKey)
	if cfg.InviteLimiter == nil {
		cfg.InviteLimiter = middleware.NewIPRateLimiter(DefaultInviteRatePerMinute)
	}

	webhookHandler := webhook.NewIdentityWebhookHandler(cfg.Verifier, services.Sync(), services.Retry())
	WebhookRouter(router.Group("/webhooks"), webhookHandler)

	accountHandler := handler.NewAccountHandler(services.Deletion(), cfg.IsProduction)
	AccountRouter(router.Group("/accounts", admin), accountHandler)

	invitationHandler := handler.NewInvitationHandler(services.Invitations(), cfg.IsProduction)
	InvitationRouter(router.Group("/invitations"), admin, middleware.RateLimit(cfg.InviteLimiter), invitationHandler)

	recoveryHandler := handler.NewRecoveryHandler(services.Recovery(), cfg.IsProduction)
	RecoveryRouter(router.Group("/recovery"), admin, recoveryHandler)
}
