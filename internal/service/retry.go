package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"funnelhq.app/portal/common/metrics"
)

const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Outcome reports how a retried operation ended. Err is nil on success.
type Outcome struct {
	Attempts int
	Err      error
}

type RetryCoordinator interface {
	Run(ctx context.Context, key string, fn func(ctx context.Context) error) Outcome
}

type RetryOption func(*retryCoordinator)

// WithPolicyFor overrides the policy for one event type.
func WithPolicyFor(key string, policy RetryPolicy) RetryOption {
	return func(r *retryCoordinator) {
		r.overrides[key] = normalizePolicy(policy, r.defaults)
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *retryCoordinator) {
		r.sleep = sleep
	}
}

type retryCoordinator struct {
	defaults  RetryPolicy
	overrides map[string]RetryPolicy
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRetryCoordinator runs operations up to MaxAttempts times with a fixed delay.
// Errors wrapped with Permanent end the loop early.
func NewRetryCoordinator(policy RetryPolicy, opts ...RetryOption) RetryCoordinator {
	r := &retryCoordinator{
		defaults:  normalizePolicy(policy, RetryPolicy{MaxAttempts: DefaultRetryAttempts, Delay: DefaultRetryDelay}),
		overrides: map[string]RetryPolicy{},
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *retryCoordinator) Run(ctx context.Context, key string, fn func(ctx context.Context) error) Outcome {
	policy := r.policyFor(key)

	var lastErr error
	attempt := 0
	for attempt < policy.MaxAttempts {
		attempt++
		lastErr = fn(ctx)
		if lastErr == nil {
			break
		}

		if IsPermanent(lastErr) {
			slog.WarnContext(ctx, "permanent failure, not retrying",
				"key", key,
				"attempt", attempt,
				"error", lastErr)
			break
		}

		if attempt >= policy.MaxAttempts {
			slog.ErrorContext(ctx, "retries exhausted",
				"key", key,
				"attempts", attempt,
				"error", lastErr)
			break
		}

		slog.WarnContext(ctx, "attempt failed, retrying",
			"key", key,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", policy.Delay,
			"error", lastErr)

		if err := r.sleep(ctx, policy.Delay); err != nil {
			lastErr = fmt.Errorf("%w (retry aborted: %v)", lastErr, err)
			break
		}
	}

	metrics.WebhookAttempts.WithLabelValues(key).Observe(float64(attempt))
	return Outcome{Attempts: attempt, Err: lastErr}
}

func (r *retryCoordinator) policyFor(key string) RetryPolicy {
	if p, ok := r.overrides[key]; ok {
		return p
	}
	return r.defaults
}

func normalizePolicy(p, fallback RetryPolicy) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = fallback.MaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = fallback.Delay
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retries is the number of retries (attempts after the first) in o.
func (o Outcome) Retries() int {
	if o.Attempts <= 1 {
		return 0
	}
	return o.Attempts - 1
}
