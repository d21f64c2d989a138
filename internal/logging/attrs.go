package logging

import (
	"context"
	"log/slog"
	"time"

	"tunely/internal/services"
)

// Structured keys shared by every tunely component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldStage     = "stage"
	// FieldEventType classifies a line for filtering, e.g. stage_start.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what the user loses because of a warning.
	FieldImpact = "impact"
)

type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error records err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(FieldComponent, component)
}

// WithContext adds the request ID and stage carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, FieldRequestID, id)
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, FieldStage, stage)
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// WarnWithContext logs a warning that always carries an event type, a hint
// and an impact. Attributes passed explicitly take precedence.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, fillDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "inspect the request log for details"),
		String(FieldImpact, "request continued with degraded output"),
	)...)
}

// ErrorWithContext logs an error that always carries an event type and a
// hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelError, msg, fillDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "inspect the request log for details"),
	)...)
}

func fillDefaults(attrs []Attr, defaults ...Attr) []Attr {
	out := append([]Attr(nil), attrs...)
	for _, def := range defaults {
		present := false
		for _, attr := range attrs {
			if attr.Key == def.Key {
				present = true
				break
			}
		}
		if !present {
			out = append(out, def)
		}
	}
	return out
}
