// Package logger configures slog for the portal binaries and carries
// per-request log fields and spans through context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"funnelhq.app/portal/core/config"
)

// Setup installs the default logger. Production exports through OTel when an
// endpoint is configured and otherwise writes JSON; other environments write text.
// Email attributes are masked in production.
func Setup(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: level(cfg)}
	if cfg.IsProduction() {
		opts.ReplaceAttr = maskEmails
	}

	var handler slog.Handler
	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		handler = otelslog.NewHandler(cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	case cfg.IsProduction():
		handler = NewTraceHandler(slog.NewJSONHandler(os.Stdout, opts))
	default:
		handler = NewTraceHandler(slog.NewTextHandler(os.Stdout, opts))
	}

	slog.SetDefault(slog.New(handler))
}

func level(cfg config.Config) slog.Level {
	var lvl slog.Level
	if cfg.LogLevel != "" && lvl.UnmarshalText([]byte(cfg.LogLevel)) == nil {
		return lvl
	}
	if cfg.IsDevelopment() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// maskEmails keeps the first character and the domain: "jane@acme.com" becomes "j***@acme.com".
func maskEmails(_ []string, a slog.Attr) slog.Attr {
	if a.Key != "email" || a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, MaskEmail(a.Value.String()))
}

func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// TraceHandler adds the active trace and span IDs and the context's LogFields
// to every record.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	r.AddAttrs(GetLogFields(ctx).attrs()...)
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
