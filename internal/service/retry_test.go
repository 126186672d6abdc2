package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/internal/service"
)

var _ = Describe("RetryCoordinator", func() {
	var (
		ctx    context.Context
		sleeps []time.Duration
		sleep  func(ctx context.Context, d time.Duration) error
	)

	BeforeEach(func() {
		ctx = context.Background()
		sleeps = nil
		sleep = func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}
	})

	It("should stop after the first success", func() {
		r := service.NewRetryCoordinator(service.RetryPolicy{MaxAttempts: 3, Delay: time.Second}, service.WithSleeper(sleep))

		calls := 0
		outcome := r.Run(ctx, "user.created", func(context.Context) error {
			calls++
			return nil
		})

		Expect(outcome.Err).NotTo(HaveOccurred())
		Expect(outcome.Attempts).To(Equal(1))
		Expect(outcome.Retries()).To(Equal(0))
		Expect(calls).To(Equal(1))
		Expect(sleeps).To(BeEmpty())
	})

	It("should retry with a fixed delay until success", func() {
		r := service.NewRetryCoordinator(service.RetryPolicy{MaxAttempts: 3, Delay: time.Second}, service.WithSleeper(sleep))

		calls := 0
		outcome := r.Run(ctx, "user.created", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		})

		Expect(outcome.Err).NotTo(HaveOccurred())
		Expect(outcome.Attempts).To(Equal(3))
		Expect(outcome.Retries()).To(Equal(2))
		Expect(sleeps).To(Equal([]time.Duration{time.Second, time.Second}))
	})

	It("should return the last error with the full attempt count on exhaustion", func() {
		r := service.NewRetryCoordinator(service.RetryPolicy{MaxAttempts: 3, Delay: time.Second}, service.WithSleeper(sleep))

		calls := 0
		outcome := r.Run(ctx, "user.created", func(context.Context) error {
			calls++
			return errors.New("attempt failed")
		})

		Expect(outcome.Err).To(MatchError("attempt failed"))
		Expect(outcome.Attempts).To(Equal(3))
		Expect(calls).To(Equal(3))
		Expect(sleeps).To(HaveLen(2))
	})

	It("should not retry permanent errors", func() {
		r := service.NewRetryCoordinator(service.RetryPolicy{MaxAttempts: 3, Delay: time.Second}, service.WithSleeper(sleep))

		outcome := r.Run(ctx, "user.created", func(context.Context) error {
			return service.Permanent(service.ErrEmailRequired)
		})

		Expect(outcome.Attempts).To(Equal(1))
		Expect(outcome.Err).To(MatchError(service.ErrEmailRequired))
		Expect(service.IsPermanent(outcome.Err)).To(BeTrue())
	})

	It("should keep the handler error when the wait is cancelled", func() {
		cancelled := func(context.Context, time.Duration) error { return context.Canceled }
		r := service.NewRetryCoordinator(service.RetryPolicy{MaxAttempts: 3, Delay: time.Second}, service.WithSleeper(cancelled))
		handlerErr := errors.New("attempt failed")

		outcome := r.Run(ctx, "user.created", func(context.Context) error {
			return handlerErr
		})

		Expect(outcome.Attempts).To(Equal(1))
		Expect(outcome.Err).To(MatchError(handlerErr))
		Expect(outcome.Err.Error()).To(ContainSubstring("retry aborted: context canceled"))
	})

	It("should apply per-key policy overrides", func() {
		r := service.NewRetryCoordinator(
			service.RetryPolicy{MaxAttempts: 3, Delay: time.Second},
			service.WithSleeper(sleep),
			service.WithPolicyFor("user.deleted", service.RetryPolicy{MaxAttempts: 5, Delay: 2 * time.Second}),
		)

		outcome := r.Run(ctx, "user.deleted", func(context.Context) error {
			return errors.New("timeout")
		})

		Expect(outcome.Attempts).To(Equal(5))
		Expect(sleeps).To(HaveEach(2 * time.Second))
	})

	It("should fall back to defaults for an empty policy", func() {
		r := service.NewRetryCoordinator(service.RetryPolicy{}, service.WithSleeper(sleep))

		outcome := r.Run(ctx, "organization.created", func(context.Context) error {
			return errors.New("timeout")
		})

		Expect(outcome.Attempts).To(Equal(service.DefaultRetryAttempts))
		Expect(sleeps).To(HaveEach(service.DefaultRetryDelay))
	})

	It("should not double-wrap permanent errors", func() {
		err := service.Permanent(service.Permanent(service.ErrMalformedEvent))
		Expect(service.IsPermanent(err)).To(BeTrue())
		Expect(errors.Unwrap(err)).To(Equal(service.ErrMalformedEvent))
		Expect(service.Permanent(nil)).To(BeNil())
	})
})
