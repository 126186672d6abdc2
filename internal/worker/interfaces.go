package worker

import (
	"context"

	"funnelhq.app/portal/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// JobProcessor replays a staged recovery job. service.RecoveryService satisfies it.
type JobProcessor interface {
	Process(ctx context.Context, jobID int64) error
}

// InvitationExpirer moves overdue pending invitations to expired.
type InvitationExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}
