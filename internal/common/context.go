package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID  contextKey = "request_id"
	ContextKeyUploaderID contextKey = "uploader_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithUploaderID records which user submitted the receipt being processed.
func WithUploaderID(ctx context.Context, uploaderID string) context.Context {
	return context.WithValue(ctx, ContextKeyUploaderID, uploaderID)
}

// UploaderIDFromContext extracts the uploader ID from context
func UploaderIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyUploaderID).(string); ok {
		return id
	}
	return ""
}

// WithTimeout creates a context with the specified timeout. A non-positive
// timeout leaves the parent deadline in place.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
