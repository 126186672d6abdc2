package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// JobMessage asks the worker to replay a staged recovery job.
type JobMessage struct {
	JobID   int64
	TraceID *string
	Attempt int
}

type Producer interface {
	Enqueue(ctx context.Context, msg JobMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{client: client, stream: stream, logger: logger}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg JobMessage) error {
	var traceID string
	if msg.TraceID != nil {
		traceID = *msg.TraceID
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: streamValues(msg.JobID, traceID, msg.Attempt),
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueueing recovery job %d: %w", msg.JobID, err)
	}

	p.logger.InfoContext(ctx, "recovery job enqueued", "job_id", msg.JobID, "entry_id", id)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
