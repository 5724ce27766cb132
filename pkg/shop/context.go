package shop

import (
	"context"

	"github.com/example/storefront/pkg/models"
)

type sessionKey struct{}

// WithSession attaches the caller's session to ctx.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session attached by WithSession, or nil for guests.
func SessionFrom(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionKey{}).(*models.Session)
	return sess
}

func actorEmail(ctx context.Context) string {
	if sess := SessionFrom(ctx); sess != nil {
		return sess.User.Email
	}
	return ""
}
