package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/internal/queue"
)

const (
	defaultReclaimBatch  = 10
	defaultMaxDeliveries = 5
)

// StreamClaimer is the subset of the Redis client the reclaimer needs.
type StreamClaimer interface {
	XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd
	XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd
}

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
	// MaxDeliveries dead-letters entries that keep stalling workers, such as a
	// bundle that crashes the process before it can be settled.
	MaxDeliveries int64
}

// RedisReclaimer takes over recovery jobs left pending by a worker that died
// between reading and settling them.
type RedisReclaimer struct {
	client    StreamClaimer
	cfg       RedisReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client StreamClaimer, cfg RedisReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *RedisReclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultReclaimBatch
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = defaultMaxDeliveries
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run reclaims every Interval until ctx is done or Stop is called.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "portal.worker.reclaimer"})
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.reclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaiming stale recovery jobs", "error", err)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

func (r *RedisReclaimer) reclaimOnce(ctx context.Context) error {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.cfg.Stream,
		Group:  r.cfg.Group,
		Idle:   r.cfg.MinIdle,
		Start:  "-",
		End:    "+",
		Count:  r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending %s: %w", r.cfg.Stream, err)
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]string, len(pending))
	deliveries := make(map[string]int64, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
		deliveries[p.ID] = p.RetryCount
	}

	// Entries another reclaimer took first are simply absent from the result.
	claimed, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return fmt.Errorf("xclaim %d entries: %w", len(ids), err)
	}

	for _, entry := range claimed {
		r.settle(ctx, entry, deliveries[entry.ID])
	}
	return nil
}

func (r *RedisReclaimer) settle(ctx context.Context, entry redis.XMessage, deliveries int64) {
	msg, err := queue.ParseMessage(entry)
	if err != nil {
		slog.ErrorContext(ctx, "dropping undecodable stale entry", "error", err, "entry_id", entry.ID)
		if ackErr := r.consumer.Ack(ctx, queue.Message{ID: entry.ID, Raw: entry}); ackErr != nil {
			slog.WarnContext(ctx, "failed to ack undecodable entry", "error", ackErr, "entry_id", entry.ID)
		}
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{JobID: logger.Ptr(msg.JobID)})

	if deliveries >= r.cfg.MaxDeliveries {
		reason := fmt.Sprintf("stalled after %d deliveries", deliveries)
		if dlqErr := r.consumer.SendDLQ(ctx, msg, reason); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to dead-letter stalled recovery job", "error", dlqErr)
			return
		}
		metrics.RecoveryJobsTotal.WithLabelValues("dead_lettered").Inc()
		return
	}

	metrics.RecoveryJobsTotal.WithLabelValues("reclaimed").Inc()
	slog.InfoContext(ctx, "reclaimed stale recovery job", "entry_id", entry.ID, "deliveries", deliveries)
	if err := r.processor(ctx, msg); err != nil {
		slog.WarnContext(ctx, "reclaimed recovery job failed", "error", err)
	}
}
