package handlers

import (
	"context"
	"net/http"
)

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// WithSessionID attaches the caller's opaque identity token to the request
// context. Set by the session middleware.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID returns the caller's opaque identity token, or "" when the
// session middleware did not run.
func SessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}
