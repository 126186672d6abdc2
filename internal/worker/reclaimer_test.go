package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/internal/queue"
)

var _ = Describe("RedisReclaimer", func() {
	var (
		ctx       context.Context
		client    *fakeClaimer
		consumer  *mockConsumer
		processed []queue.Message
		r         *RedisReclaimer
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeClaimer{claimed: map[string]redis.XMessage{}}
		consumer = &mockConsumer{}
		processed = nil
		r = NewRedisReclaimer(client, RedisReclaimerConfig{
			Stream:   "recovery_jobs",
			Group:    "portal-workers",
			Consumer: "worker-2",
			MinIdle:  time.Minute,
			Interval: time.Minute,
		}, consumer, func(_ context.Context, msg queue.Message) error {
			processed = append(processed, msg)
			return nil
		})
	})

	It("claims stale messages and hands them to the processor", func() {
		client.pending = []redis.XPendingExt{{ID: "1-0", Consumer: "worker-1", Idle: 2 * time.Minute}}
		client.claimed["1-0"] = redis.XMessage{ID: "1-0", Values: map[string]any{"job_id": "42", "attempt": "2"}}

		Expect(r.reclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(HaveLen(1))
		Expect(processed[0].JobID).To(Equal(int64(42)))
		Expect(processed[0].Attempt).To(Equal(2))
		Expect(client.claimArgs[0].Consumer).To(Equal("worker-2"))
		Expect(client.claimArgs[0].MinIdle).To(Equal(time.Minute))
	})

	It("skips messages another worker already claimed", func() {
		client.pending = []redis.XPendingExt{{ID: "1-0"}}

		Expect(r.reclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(BeEmpty())
	})

	It("acks unparseable messages so they do not loop", func() {
		client.pending = []redis.XPendingExt{{ID: "1-0"}}
		client.claimed["1-0"] = redis.XMessage{ID: "1-0", Values: map[string]any{"task_type": "recovery_import"}}

		Expect(r.reclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(BeEmpty())
		Expect(consumer.ackedIDs()).To(Equal([]string{"1-0"}))
	})

	It("surfaces pending lookup failures", func() {
		client.pendingErr = errors.New("connection refused")

		Expect(r.reclaimOnce(ctx)).To(MatchError(ContainSubstring("xpending")))
	})

	It("claims the whole stale batch in one call", func() {
		client.pending = []redis.XPendingExt{{ID: "1-0"}, {ID: "2-0"}}
		client.claimed["1-0"] = redis.XMessage{ID: "1-0", Values: map[string]any{"job_id": "1"}}
		client.claimed["2-0"] = redis.XMessage{ID: "2-0", Values: map[string]any{"job_id": "2"}}

		Expect(r.reclaimOnce(ctx)).To(Succeed())

		Expect(client.claimArgs).To(HaveLen(1))
		Expect(client.claimArgs[0].Messages).To(Equal([]string{"1-0", "2-0"}))
		Expect(processed).To(HaveLen(2))
	})

	It("dead-letters entries that keep stalling workers", func() {
		client.pending = []redis.XPendingExt{{ID: "1-0", RetryCount: 5}}
		client.claimed["1-0"] = redis.XMessage{ID: "1-0", Values: map[string]any{"job_id": "42"}}

		Expect(r.reclaimOnce(ctx)).To(Succeed())

		Expect(processed).To(BeEmpty())
		Expect(consumer.dlq).To(HaveLen(1))
		Expect(consumer.dlq[0].JobID).To(Equal(int64(42)))
	})

	It("settles reclaimed messages through the worker", func() {
		processor := &mockProcessor{}
		w := New(consumer, processor, Config{MaxAttempts: 3})
		r = NewRedisReclaimer(client, RedisReclaimerConfig{MinIdle: time.Minute, Interval: time.Minute}, consumer, w.HandleMessage)
		client.pending = []redis.XPendingExt{{ID: "7-0"}}
		client.claimed["7-0"] = redis.XMessage{ID: "7-0", Values: map[string]any{"job_id": "9"}}

		Expect(r.reclaimOnce(ctx)).To(Succeed())

		Expect(processor.processed()).To(Equal([]int64{9}))
		Expect(consumer.ackedIDs()).To(Equal([]string{"7-0"}))
	})
})
