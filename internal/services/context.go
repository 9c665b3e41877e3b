package services

import "context"

type contextKey string

const (
	stageKey      contextKey = "stage"
	requestIDKey  contextKey = "request_id"
	generationKey contextKey = "generation"
)

// WithStage annotates context with the ingestion stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithGeneration annotates context with the lookup generation that issued it.
func WithGeneration(ctx context.Context, gen uint64) context.Context {
	if gen == 0 {
		return ctx
	}
	return context.WithValue(ctx, generationKey, gen)
}

// GenerationFromContext returns the lookup generation if present.
func GenerationFromContext(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(generationKey).(uint64)
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}
