package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"funnelhq.app/portal/common/logger"
)

type ConsumerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	DLQStream    string
	DLQMaxLen    int64 // approximate cap on the dead letter stream, 0 for unbounded
	BatchSize    int64
	Block        time.Duration
	MaxAttempts  int
	RequeueDelay time.Duration
}

// MessageProcessor handles one decoded recovery job delivery.
type MessageProcessor func(ctx context.Context, msg Message) error

// RedisConsumer reads recovery jobs through a consumer group. Requeue and
// dead-lettering ack the original entry in the same MULTI as the new XADD,
// so a crash never leaves a job both pending and re-added.
type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	c := &RedisConsumer{client: client, cfg: cfg}

	// "0" so a recreated group still sees jobs staged while no worker was running.
	err := client.XGroupCreateMkStream(context.Background(), cfg.Stream, cfg.Group, "0").Err() //nolint:contextcheck
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("creating consumer group %s on %s: %w", cfg.Group, cfg.Stream, err)
	}
	return c, nil
}

// Read blocks up to Block for new deliveries. Entries that cannot be decoded
// are acked and dropped; redelivering them would never succeed.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "portal.queue.consumer"})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.cfg.Stream, err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			msg, err := ParseMessage(entry)
			if err != nil {
				slog.ErrorContext(ctx, "dropping undecodable recovery job entry",
					"error", err,
					"entry_id", entry.ID)
				if ackErr := c.Ack(ctx, Message{ID: entry.ID}); ackErr != nil {
					slog.WarnContext(ctx, "failed to ack undecodable entry", "error", ackErr, "entry_id", entry.ID)
				}
				continue
			}
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("acking %s: %w", msg.ID, err)
	}
	return nil
}

// Requeue re-adds the job with the next attempt number after RequeueDelay.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	if c.cfg.RequeueDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RequeueDelay):
		}
	}

	values := streamValues(msg.JobID, msg.TraceID, msg.Attempt+1)
	if errMsg != "" {
		values[fieldLastError] = errMsg
	}

	if err := c.ackAndAdd(ctx, msg, &redis.XAddArgs{Stream: c.cfg.Stream, Values: values}); err != nil {
		return fmt.Errorf("requeueing job %d: %w", msg.JobID, err)
	}

	slog.InfoContext(ctx, "recovery job requeued", "next_attempt", msg.Attempt+1, "reason", errMsg)
	return nil
}

// SendDLQ moves the job to the dead letter stream with its final error.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	values := streamValues(msg.JobID, msg.TraceID, msg.Attempt)
	values["error"] = errMsg
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	values["source_id"] = msg.ID

	args := &redis.XAddArgs{Stream: c.cfg.DLQStream, Values: values}
	if c.cfg.DLQMaxLen > 0 {
		args.MaxLen = c.cfg.DLQMaxLen
		args.Approx = true
	}
	if err := c.ackAndAdd(ctx, msg, args); err != nil {
		return fmt.Errorf("dead-lettering job %d: %w", msg.JobID, err)
	}

	slog.ErrorContext(ctx, "recovery job dead-lettered",
		"final_error", errMsg,
		"attempt", msg.Attempt,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

func (c *RedisConsumer) ackAndAdd(ctx context.Context, msg Message, add *redis.XAddArgs) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID)
		pipe.XAdd(ctx, add)
		return nil
	})
	return err
}
