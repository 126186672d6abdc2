package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"funnelhq.app/portal/internal/domain"
)

// notificationStreamMaxLen caps the fan-out stream; consumers only need recent entries.
const notificationStreamMaxLen = 10000

// Notifier publishes state changes to the realtime fan-out.
type Notifier interface {
	Publish(ctx context.Context, n domain.Notification) error
}

type redisNotifier struct {
	client *redis.Client
	stream string
}

func NewRedisNotifier(client *redis.Client, stream string) Notifier {
	return &redisNotifier{client: client, stream: stream}
}

func (n *redisNotifier) Publish(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	if err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: notificationStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"type":    string(notification.Type),
			"payload": string(payload),
		},
	}).Err(); err != nil {
		return fmt.Errorf("publishing %s notification: %w", notification.Type, err)
	}

	slog.DebugContext(ctx, "notification published", "type", notification.Type, "stream", n.stream)
	return nil
}

type noopNotifier struct{}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Publish(context.Context, domain.Notification) error {
	return nil
}
