package services

import "context"

type (
	requestIDKey struct{}
	stageKey     struct{}
)

// WithRequestID tags ctx with the karaoke request being processed. An empty
// id leaves ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithStage tags ctx with the pipeline stage, e.g. "separating".
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey{}, stage)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey{})
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey{})
}

func stringValue(ctx context.Context, key any) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
