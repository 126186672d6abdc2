package worker

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"funnelhq.app/portal/internal/queue"
)

type mockConsumer struct {
	mu       sync.Mutex
	readFn   func(ctx context.Context) ([]queue.Message, error)
	acked    []string
	requeued []queue.Message
	dlq      []queue.Message
	reasons  []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg)
	m.reasons = append(m.reasons, errMsg)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg)
	m.reasons = append(m.reasons, errMsg)
	return nil
}

func (m *mockConsumer) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

type mockProcessor struct {
	mu        sync.Mutex
	processFn func(ctx context.Context, jobID int64) error
	jobs      []int64
}

func (m *mockProcessor) Process(ctx context.Context, jobID int64) error {
	m.mu.Lock()
	m.jobs = append(m.jobs, jobID)
	m.mu.Unlock()
	if m.processFn != nil {
		return m.processFn(ctx, jobID)
	}
	return nil
}

func (m *mockProcessor) processed() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.jobs...)
}

type fakeClaimer struct {
	pending    []redis.XPendingExt
	pendingErr error
	claimed    map[string]redis.XMessage
	claimArgs  []*redis.XClaimArgs
}

func (f *fakeClaimer) XPendingExt(ctx context.Context, _ *redis.XPendingExtArgs) *redis.XPendingExtCmd {
	cmd := redis.NewXPendingExtCmd(ctx)
	if f.pendingErr != nil {
		cmd.SetErr(f.pendingErr)
		return cmd
	}
	cmd.SetVal(f.pending)
	return cmd
}

func (f *fakeClaimer) XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd {
	f.claimArgs = append(f.claimArgs, a)
	cmd := redis.NewXMessageSliceCmd(ctx)
	var out []redis.XMessage
	for _, id := range a.Messages {
		if msg, ok := f.claimed[id]; ok {
			out = append(out, msg)
		}
	}
	cmd.SetVal(out)
	return cmd
}

type mockExpirer struct {
	mu    sync.Mutex
	calls int
	n     int
	err   error
}

func (m *mockExpirer) ExpireStale(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.n, m.err
}

func (m *mockExpirer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
