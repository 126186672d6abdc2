package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/internal/queue"
	"funnelhq.app/portal/internal/service"
)

const (
	defaultMaxAttempts  = 3
	defaultErrorBackoff = time.Second
)

type Config struct {
	MaxAttempts  int
	ErrorBackoff time.Duration
}

// Worker replays staged recovery bundles delivered on the job stream.
type Worker struct {
	consumer  Consumer
	processor JobProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor JobProcessor, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run reads and handles deliveries until ctx is done or Stop is called.
// A failed read backs off for ErrorBackoff before polling again.
func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "portal.worker.recovery"})
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "recovery worker started", "max_attempts", w.cfg.MaxAttempts)

	for {
		if w.stopping() {
			slog.InfoContext(ctx, "recovery worker stopping")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		messages, err := w.consumer.Read(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "reading recovery jobs", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.stopCh:
				return nil
			case <-time.After(w.cfg.ErrorBackoff):
			}
			continue
		}

		for _, msg := range messages {
			_ = w.HandleMessage(ctx, msg)
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) stopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// HandleMessage replays one job and settles its delivery: ack when the job
// completes, requeue on a transient failure, dead-letter when the error is
// permanent or the last attempt failed. The reclaimer uses it for stale deliveries.
func (w *Worker) HandleMessage(ctx context.Context, msg queue.Message) error {
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.recovery_job")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{JobID: logger.Ptr(msg.JobID)})

	start := time.Now()
	err := w.replay(ctx, msg)
	if err != nil {
		span.RecordError(err)
	}
	outcome := w.settle(ctx, msg, err)
	metrics.RecoveryJobsTotal.WithLabelValues(outcome).Inc()

	slog.InfoContext(ctx, "recovery job settled",
		"outcome", outcome,
		"attempt", msg.Attempt,
		"entry_id", msg.ID,
		"duration_ms", time.Since(start).Milliseconds())
	return err
}

func (w *Worker) replay(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery job %d panicked: %v", msg.JobID, r)
		}
	}()
	return w.processor.Process(ctx, msg.JobID)
}

func (w *Worker) settle(ctx context.Context, msg queue.Message, err error) string {
	switch {
	case err == nil:
		if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
			// Redelivery is harmless: completed jobs are skipped.
			slog.WarnContext(ctx, "failed to ack completed recovery job", "error", ackErr)
		}
		return "completed"

	case service.IsPermanent(err) || msg.Attempt >= w.cfg.MaxAttempts:
		slog.ErrorContext(ctx, "recovery job failed for good",
			"error", err,
			"permanent", service.IsPermanent(err))
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to dead-letter recovery job", "error", dlqErr)
		}
		return "dead_lettered"

	default:
		slog.WarnContext(ctx, "recovery job failed, retrying", "error", err)
		if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
			slog.ErrorContext(ctx, "failed to requeue recovery job", "error", requeueErr)
		}
		return "requeued"
	}
}
