// Package ctxkeys holds the shared context keys for the API layer.
// Extracted to a leaf package to avoid import cycles between api and api/handlers.
package ctxkeys

import "context"

// Key is the unexported named type for all API context keys.
// Using a named type avoids collisions with string keys from other packages
// at runtime (context.Value compares both type and value).
type Key string

// SessionID is the context key for the authenticated conversation session.
// Injected by SessionMiddleware from JWT claims, read by all handlers.
const SessionID Key = "session_id"

// WithSessionID adds the session id to the request context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionID, sessionID)
}

// SessionIDFrom retrieves the session id injected by the auth middleware.
// ok is false when the value is missing or empty.
func SessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SessionID).(string)
	return id, ok && id != ""
}
