// Package session keeps server-side login sessions. The browser only ever
// holds the opaque session id in a cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Store interface {
	// Create opens a new session for the identity and returns it with its id.
	Create(ctx context.Context, identity models.Identity) (*models.Session, error)
	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func newSession(identity models.Identity, ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        uuid.NewString(),
		User:      identity,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
