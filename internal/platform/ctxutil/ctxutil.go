// Package ctxutil carries per-request identity through context.Context.
package ctxutil

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type (
	callerKey struct{}
	traceKey  struct{}
)

// RequestData is the authenticated caller, attached by the auth middleware
// from verified JWT claims.
type RequestData struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

func (rd *RequestData) IsAdmin() bool { return rd.HasRole("admin") }

func (rd *RequestData) HasRole(roles ...string) bool {
	return rd != nil && slices.Contains(roles, rd.Role)
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), callerKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	return lookup[*RequestData](ctx, callerKey{})
}

// TraceData ties log lines and spans of one inbound request together.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	return lookup[*TraceData](ctx, traceKey{})
}

func lookup[T any](ctx context.Context, key any) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(key).(T)
	return v
}
