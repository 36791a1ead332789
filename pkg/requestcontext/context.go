// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
// Tests inject them directly:
//
//	ctx = requestcontext.WithCaller(ctx, "0xabc")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"healthchain/pkg/domain"
)

type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Caller retrieves the authenticated caller identity from the context.
// Returns the zero identity if not set.
func Caller(ctx context.Context) domain.Identity {
	if caller, ok := ctx.Value(callerKey{}).(domain.Identity); ok {
		return caller
	}
	return ""
}

// WithCaller injects a caller identity into the context.
func WithCaller(ctx context.Context, caller domain.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to time.Now()
// for non-HTTP contexts (workers, tests without injection).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. All writes within one
// request observe the same commit time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
