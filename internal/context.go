package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextMemberIDKey ctxKey = "memberID"
	ContextRoleKey     ctxKey = "memberRole"
)

func MemberIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if memberID, ok := ctx.Value(ContextMemberIDKey).(string); ok {
		return memberID
	}
	return ""
}

func ContextWithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, ContextMemberIDKey, memberID)
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if role, ok := ctx.Value(ContextRoleKey).(string); ok {
		return role
	}
	return ""
}

func ContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextRoleKey, role)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
