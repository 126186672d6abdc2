package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"funnelhq.app/portal/common/id"
	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/common/otel"
	"funnelhq.app/portal/core/config"
	"funnelhq.app/portal/core/db"
	"funnelhq.app/portal/internal/businessdata"
	"funnelhq.app/portal/internal/http/middleware"
	httprouter "funnelhq.app/portal/internal/http/router"
	"funnelhq.app/portal/internal/identity"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/service"
	"funnelhq.app/portal/internal/store"
	"funnelhq.app/portal/internal/webhook"
)

const limiterPruneInterval = time.Minute

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "portal server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	metrics.Init()

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected",
		"notification_stream", cfg.Pipeline.NotificationStream,
		"recovery_stream", cfg.Pipeline.RecoveryStream)

	// The producer owns the redis client and closes it.
	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RecoveryStream, slog.Default())
	defer producer.Close()

	var notifier queue.Notifier = queue.NewNoopNotifier()
	if cfg.Pipeline.NotificationStream != "" {
		notifier = queue.NewRedisNotifier(redisClient, cfg.Pipeline.NotificationStream)
	}

	services := service.NewServices(
		store.NewStores(database.Queries(), database.SQL()),
		service.NewTxRunner(database),
		cfg,
		businessdata.NewClient(businessdata.Options{
			BaseURL: cfg.BusinessData.BaseURL,
			APIKey:  cfg.BusinessData.APIKey,
			Timeout: cfg.BusinessData.Timeout,
		}),
		identity.NewWorkOSProvider(cfg.WorkOS.APIKey),
		notifier,
		producer,
	)

	if cfg.Webhook.SigningSecret == "" {
		slog.WarnContext(ctx, "WEBHOOK_SIGNING_SECRET not set, identity webhooks will be refused")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewIPRateLimiter(cfg.Invitation.RatePerMinute)
	router := setupRouter(cfg, services, limiter, func(ctx context.Context) error {
		return errors.Join(database.Ping(ctx), redisClient.Ping(ctx).Err())
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Hard deletes and exhausted webhook retries can run long.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneLimiter(pruneCtx, limiter)

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	stopPrune()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, limiter *middleware.IPRateLimiter, ready func(context.Context) error) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.TraceHeader(cfg.Pipeline.TraceHeaderName))
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		IsProduction:  cfg.IsProduction(),
		AdminAPIKey:   cfg.AdminAPIKey,
		Verifier:      webhook.NewVerifier(cfg.Webhook.SigningSecret, cfg.Webhook.Tolerance),
		InviteLimiter: limiter,
		Ready:         ready,
	})

	return router
}

func pruneLimiter(ctx context.Context, limiter *middleware.IPRateLimiter) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}

const banner = `
 ____            _        _
|  _ \ ___  _ __| |_ __ _| |
| |_) / _ \| '__| __/ _' | |
|  __/ (_) | |  | || (_| | |
|_|   \___/|_|   \__\__,_|_|   server
`
