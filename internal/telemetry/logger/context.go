package logger

import "context"

type contextKey string

const (
	loggerKey contextKey = "confmesh.logger"
	loadIDKey contextKey = "confmesh.load_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from ctx, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithLoadID tags ctx with the correlation ID of one load cycle.
func WithLoadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, loadIDKey, id)
}

// LoadIDFromContext returns the load ID stored in ctx, if any.
func LoadIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(loadIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the load ID.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := LoadIDFromContext(ctx); id != "" {
		l = l.With("load_id", id)
	}
	return l
}
