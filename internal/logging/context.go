package logging

import (
	"context"
	"log/slog"

	"moviecase/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized key for ingestion stage names (search, barcode, poster).
	FieldStage = "stage"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldGeneration is the lookup generation that issued a request.
	FieldGeneration = "generation"
	// FieldEventType names the kind of event for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint is the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldErrorKind is the services marker classification (not_found, network, ...).
	FieldErrorKind = "error_kind"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldMovieID is the local record identifier.
	FieldMovieID = "movie_id"
	// FieldTitle is the record title as shown to the user.
	FieldTitle = "title"
	// FieldPosterURL is the remote poster reference used as the cache key.
	FieldPosterURL = "poster_url"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if gen, ok := services.GenerationFromContext(ctx); ok {
		fields = append(fields, slog.Uint64(FieldGeneration, gen))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// ErrorAttrs returns the error plus its classification and hint.
func ErrorAttrs(err error) []Attr {
	return []Attr{
		Error(err),
		String(FieldErrorKind, services.Kind(err)),
		String(FieldErrorHint, services.Hint(err)),
	}
}
