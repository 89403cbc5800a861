// Package auth validates the bearer access token each dashboard request
// carries and exposes the resulting session to the handlers.
package auth

import (
	"context"
	"time"
)

// Session is a verified caller. AccessToken is forwarded to the
// spreadsheet API on the caller's behalf.
type Session struct {
	AccessToken string
	Email       string
	ExpiresAt   time.Time
}

type sessionKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by the middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
