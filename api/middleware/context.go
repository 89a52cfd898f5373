package middleware

import "context"

type contextKey string

const (
	ctxAdminID     contextKey = "admin_id"
	ctxRole        contextKey = "actor_role"
	ctxAccessID    contextKey = "access_id"
	ctxCartSession contextKey = "cart_session"
)

func AdminIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAdminID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

// AccessIDFromContext returns the jti of the bearer token, used to revoke the session on logout.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

func CartSessionFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxCartSession)
}

// WithAdminID injects the admin identifier into the context.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminID, adminID)
}

// WithCartSession injects the cart session id into the context for downstream handlers.
func WithCartSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
