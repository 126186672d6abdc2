package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"funnelhq.app/portal/common/id"
	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/otel"
	"funnelhq.app/portal/core/config"
	"funnelhq.app/portal/core/db"
	"funnelhq.app/portal/internal/businessdata"
	"funnelhq.app/portal/internal/identity"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/service"
	"funnelhq.app/portal/internal/store"
	"funnelhq.app/portal/internal/worker"
)

const maxJobAttempts = 3

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "portal worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// Different node ID than the server so IDs never collide
	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

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
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RecoveryStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RecoveryStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    1, // One bundle at a time; each replays a whole organization
		Block:        5 * time.Second,
		MaxAttempts:  maxJobAttempts,
		RequeueDelay: time.Second,
		DLQMaxLen:    10000,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	provider := identity.NewNoopProvider()
	if cfg.WorkOS.Enabled() {
		provider = identity.NewWorkOSProvider(cfg.WorkOS.APIKey)
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
		provider,
		queue.NewRedisNotifier(redisClient, cfg.Pipeline.NotificationStream),
		// Recovery retries requeue through the consumer, never the producer.
		queue.NewRedisProducer(redisClient, cfg.Pipeline.RecoveryStream, slog.Default()),
	)

	w := worker.New(consumer, services.Recovery(), worker.Config{
		MaxAttempts: maxJobAttempts,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RecoveryStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.HandleMessage)

	sweeper := worker.NewInvitationSweeper(services.Invitations(), cfg.Invitation.SweepInterval)

	errCh := make(chan error, 3)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()
	go func() {
		sweeper.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Reclaimer and sweeper stop quickly; the worker may be mid-bundle.
	stopped := make(chan struct{})
	go func() {
		reclaimer.Stop()
		sweeper.Stop()
		w.Stop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case <-stopped:
		for range 3 {
			if err := <-errCh; err != nil {
				slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
			}
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ____            _        _
|  _ \ ___  _ __| |_ __ _| |
| |_) / _ \| '__| __/ _' | |
|  __/ (_) | |  | || (_| | |
|_|   \___/|_|   \__\__,_|_|   worker
`
