// Package auditcontext propagates request identity used by audit records and
// navigation telemetry.
package auditcontext

import "context"

type contextKey string

const (
	requestIDKey contextKey = "audit_request_id"
	actorTypeKey contextKey = "audit_actor_type"
	actorIDKey   contextKey = "audit_actor_id"
	ipAddressKey contextKey = "audit_ip_address"
	userAgentKey contextKey = "audit_user_agent"
	ispIDKey     contextKey = "audit_isp_id"
	screenKey    contextKey = "audit_screen"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	if actorType != "" {
		ctx = context.WithValue(ctx, actorTypeKey, actorType)
	}
	if actorID != "" {
		ctx = context.WithValue(ctx, actorIDKey, actorID)
	}
	return ctx
}

func ActorFromContext(ctx context.Context) (string, string) {
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}

func WithIPAddress(ctx context.Context, ipAddress string) context.Context {
	if ipAddress == "" {
		return ctx
	}
	return context.WithValue(ctx, ipAddressKey, ipAddress)
}

func IPAddressFromContext(ctx context.Context) string {
	value, _ := ctx.Value(ipAddressKey).(string)
	return value
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	if userAgent == "" {
		return ctx
	}
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func UserAgentFromContext(ctx context.Context) string {
	value, _ := ctx.Value(userAgentKey).(string)
	return value
}

func WithISPID(ctx context.Context, ispID string) context.Context {
	if ispID == "" {
		return ctx
	}
	return context.WithValue(ctx, ispIDKey, ispID)
}

func ISPIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(ispIDKey).(string)
	return value
}

// WithScreen tags the context with the mobile screen that triggered the
// request, reported by the app for navigation telemetry.
func WithScreen(ctx context.Context, screen string) context.Context {
	if screen == "" {
		return ctx
	}
	return context.WithValue(ctx, screenKey, screen)
}

func ScreenFromContext(ctx context.Context) string {
	value, _ := ctx.Value(screenKey).(string)
	return value
}
