package actorctx

import "context"

// Actor identifies the authenticated user performing the current operation.
// It is threaded explicitly through contexts rather than read from a shared
// global, so concurrent requests cannot observe each other's identity.
type Actor struct {
	UserID   uint
	Username string
}

type actorContextKey struct{}

type auditDisabledKey struct{}

// WithActor injects actor identity into the supplied context, returning a
// derived context that callers pass down into service layers for audit stamping.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts previously stored actor identity from the context.
// Absence of an actor, for any reason, is reported as ok == false and is
// never an error: background jobs and unauthenticated flows run without one.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// WithAuditDisabled marks the context so mutating operations skip populating
// created_by/changed_by audit columns for this call only.
func WithAuditDisabled(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, auditDisabledKey{}, true)
}

// AuditDisabled reports whether audit stamping is suppressed on this context.
func AuditDisabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	disabled, _ := ctx.Value(auditDisabledKey{}).(bool)
	return disabled
}

// AuditUserID resolves the audit stamp for the context: the acting user's id,
// or nil when no actor is present or auditing is suppressed.
func AuditUserID(ctx context.Context) *uint {
	if AuditDisabled(ctx) {
		return nil
	}
	actor, ok := FromContext(ctx)
	if !ok || actor.UserID == 0 {
		return nil
	}
	id := actor.UserID
	return &id
}
