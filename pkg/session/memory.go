package session

import (
	"context"
	"sync"
	"time"

	"github.com/example/storefront/pkg/models"
)

// MemoryStore is a process-local Store. Sessions vanish on restart.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]models.Session
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: make(map[string]models.Session)}
}

func (s *MemoryStore) Create(_ context.Context, identity models.Identity) (*models.Session, error) {
	sess := newSession(identity, s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(time.Now()) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
