package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// LogFields are attached to the context once and written on every log line
// made with it. A webhook delivery sets webhook_id and event_type at the edge
// and the sync handlers add the account they resolved.
type LogFields struct {
	AccountID      *int64
	OrganizationID *int64
	InvitationID   *int64
	ExternalID     *string // identity provider ID
	WebhookID      *string // webhook-id header
	EventType      *string // e.g. "user.created"
	JobID          *int64  // recovery job
	Component      string  // e.g. "portal.service.sync"
}

// WithLogFields merges fields into those already on ctx. Set values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := GetLogFields(ctx)
	setIf(&merged.AccountID, fields.AccountID)
	setIf(&merged.OrganizationID, fields.OrganizationID)
	setIf(&merged.InvitationID, fields.InvitationID)
	setIf(&merged.ExternalID, fields.ExternalID)
	setIf(&merged.WebhookID, fields.WebhookID)
	setIf(&merged.EventType, fields.EventType)
	setIf(&merged.JobID, fields.JobID)
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, contextKey{}, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	fields, _ := ctx.Value(contextKey{}).(LogFields)
	return fields
}

func (f LogFields) attrs() []slog.Attr {
	var attrs []slog.Attr
	if f.AccountID != nil {
		attrs = append(attrs, slog.Int64("account_id", *f.AccountID))
	}
	if f.OrganizationID != nil {
		attrs = append(attrs, slog.Int64("organization_id", *f.OrganizationID))
	}
	if f.InvitationID != nil {
		attrs = append(attrs, slog.Int64("invitation_id", *f.InvitationID))
	}
	if f.ExternalID != nil {
		attrs = append(attrs, slog.String("external_id", *f.ExternalID))
	}
	if f.WebhookID != nil {
		attrs = append(attrs, slog.String("webhook_id", *f.WebhookID))
	}
	if f.EventType != nil {
		attrs = append(attrs, slog.String("event_type", *f.EventType))
	}
	if f.JobID != nil {
		attrs = append(attrs, slog.Int64("job_id", *f.JobID))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}
