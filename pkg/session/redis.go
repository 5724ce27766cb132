package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
)

// RedisStore keeps each session as a JSON value under prefix+id, expiring
// with the session TTL so logouts and timeouts need no sweeper.
type RedisStore struct {
	redis  *repository.RedisRepository
	prefix string
	ttl    time.Duration
}

func NewRedisStore(redis *repository.RedisRepository, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: redis, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Create(ctx context.Context, identity models.Identity) (*models.Session, error) {
	sess := newSession(identity, s.ttl)
	if err := s.redis.SetJSON(ctx, s.key(sess.ID), sess, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	var sess models.Session
	if err := s.redis.GetJSON(ctx, s.key(id), &sess); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.redis.Del(ctx, s.key(id))
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}
