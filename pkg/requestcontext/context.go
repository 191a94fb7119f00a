// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// This package defines context keys and getter/setter functions for values
// that are typically set by middleware but consumed by services. By keeping
// this package free of net/http dependencies, services can import only what
// they need without pulling in HTTP-related code.
//
// Usage in services (read values):
//
//	actorID := requestcontext.ActorID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActorID(ctx, staffID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "origen/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey      struct{}
	actorTypeKey    struct{}
	tenantIDKey     struct{}
	capabilitiesKey struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

// ActorType distinguishes who performed an action for audit records.
type ActorType string

const (
	ActorStaff     ActorType = "staff"
	ActorApplicant ActorType = "applicant"
	ActorSystem    ActorType = "system"
)

// ActorID retrieves the authenticated staff actor ID from the context.
// Returns the zero value (nil UUID) if not set.
func ActorID(ctx context.Context) id.StaffID {
	if actorID, ok := ctx.Value(actorIDKey{}).(id.StaffID); ok {
		return actorID
	}
	return id.StaffID{}
}

// WithActorID injects a staff actor ID into the context.
func WithActorID(ctx context.Context, actorID id.StaffID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// Actor retrieves the actor type from the context, defaulting to system so
// background jobs audit correctly without middleware.
func Actor(ctx context.Context) ActorType {
	if t, ok := ctx.Value(actorTypeKey{}).(ActorType); ok {
		return t
	}
	return ActorSystem
}

// WithActor injects the actor type into the context.
func WithActor(ctx context.Context, t ActorType) context.Context {
	return context.WithValue(ctx, actorTypeKey{}, t)
}

// TenantID retrieves the tenant scope from the context.
// Returns the zero value (nil UUID) if not set.
func TenantID(ctx context.Context) id.TenantID {
	if tenantID, ok := ctx.Value(tenantIDKey{}).(id.TenantID); ok {
		return tenantID
	}
	return id.TenantID{}
}

// WithTenantID injects a tenant scope into the context.
func WithTenantID(ctx context.Context, tenantID id.TenantID) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, tenantID)
}

// Capabilities retrieves the actor's capability claims from the context.
func Capabilities(ctx context.Context) []string {
	if caps, ok := ctx.Value(capabilitiesKey{}).([]string); ok {
		return caps
	}
	return nil
}

// WithCapabilities injects capability claims into the context.
func WithCapabilities(ctx context.Context, caps []string) context.Context {
	return context.WithValue(ctx, capabilitiesKey{}, caps)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers,
// CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Workers that need consistent time within a batch operation
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
