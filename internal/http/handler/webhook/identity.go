package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/common/logger"
	"funnelhq.app/portal/common/metrics"
	"funnelhq.app/portal/internal/service"
	"funnelhq.app/portal/internal/webhook"
)

// maxBodyBytes bounds a single delivery.
const maxBodyBytes = 1 << 20

type IdentityWebhookHandler struct {
	verifier *webhook.Verifier
	sync     service.SyncService
	retry    service.RetryCoordinator
}

func NewIdentityWebhookHandler(verifier *webhook.Verifier, sync service.SyncService, retry service.RetryCoordinator) *IdentityWebhookHandler {
	return &IdentityWebhookHandler{
		verifier: verifier,
		sync:     sync,
		retry:    retry,
	}
}

// HandleEvent verifies a delivery against the raw body and runs its handler under
// the retry coordinator. A 500 tells the provider to redeliver later.
func (h *IdentityWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := h.verifier.Verify(body, webhook.HeadersFrom(c.Request.Header))
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrMisconfigured):
			slog.ErrorContext(ctx, "identity webhook secret not configured", "error", err)
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "failed").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook secret not configured"})
		case errors.Is(err, webhook.ErrMissingHeaders):
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook headers"})
		case errors.Is(err, webhook.ErrMalformedPayload):
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		default:
			slog.WarnContext(ctx, "identity webhook rejected", "error", err)
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		}
		return
	}

	eventType := string(event.Type)
	span := logger.StartSpan(ctx, "webhook.identity")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{
		WebhookID: logger.Ptr(event.MessageID),
		EventType: logger.Ptr(eventType),
		Component: "portal.http.webhook",
	})

	outcome := h.retry.Run(ctx, eventType, func(ctx context.Context) error {
		return h.sync.Handle(ctx, event)
	})

	switch {
	case outcome.Err == nil:
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "processed").Inc()
		slog.InfoContext(ctx, "identity webhook processed", "attempts", outcome.Attempts)

	case errors.Is(outcome.Err, service.ErrUnhandledEvent):
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "ignored").Inc()
		slog.InfoContext(ctx, "identity webhook type not handled, acknowledging")

	case service.IsPermanent(outcome.Err):
		// Redelivery cannot fix these, so acknowledge and keep the evidence in logs.
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "dropped").Inc()
		span.RecordError(outcome.Err)
		slog.ErrorContext(ctx, "identity webhook dropped", "error", outcome.Err)

	default:
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "failed").Inc()
		span.RecordError(outcome.Err)
		slog.ErrorContext(ctx, "identity webhook failed after retries",
			"attempts", outcome.Attempts,
			"error", outcome.Err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "webhook processing failed",
			"type":      eventType,
			"retries":   outcome.Retries(),
			"lastError": outcome.Err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"type":     eventType,
		"retries":  outcome.Retries(),
	})
}
