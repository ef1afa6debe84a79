// Package ispcontext carries the selected ISP (tenant) through a request.
package ispcontext

import "context"

type contextKey string

const ispIDKey contextKey = "isp_id"

// WithISPID stores the tenant id on the context.
func WithISPID(ctx context.Context, ispID int64) context.Context {
	return context.WithValue(ctx, ispIDKey, ispID)
}

// ISPIDFromContext returns the tenant id set by the middleware, if any.
func ISPIDFromContext(ctx context.Context) (int64, bool) {
	value, ok := ctx.Value(ispIDKey).(int64)
	return value, ok
}
