package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID returns a new context carrying the request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger with the request ID from ctx attached.
//
//	logging.Ctx(ctx).Info().Uint("recipe_id", id).Msg("Recipe created")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	if ctx != nil {
		if id := RequestIDFromContext(ctx); id != "" {
			logger = logger.With().Str("request_id", id).Logger()
		}
	}
	return &logger
}
