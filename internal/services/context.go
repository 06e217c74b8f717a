package services

import "context"

type contextKey string

const (
	sessionIDKey  contextKey = "session_id"
	entryIndexKey contextKey = "entry_index"
	sourceKey     contextKey = "source"
)

// WithSessionID annotates context with the export or playback session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEntryIndex annotates context with the timeline entry being sequenced.
func WithEntryIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, entryIndexKey, index)
}

// EntryIndexFromContext returns the timeline entry index if present.
func EntryIndexFromContext(ctx context.Context) (int, bool) {
	switch val := ctx.Value(entryIndexKey).(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithSource annotates context with the source reference of the current entry.
func WithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the source reference if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
