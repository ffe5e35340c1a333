package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"synexis/internal/auth"
)

// MemoryStore is an in-process session store used when Redis is not
// configured. Sessions do not survive restarts or span replicas.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

type entry struct {
	principal auth.Principal
	expires   time.Time // zero means no expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, p auth.Principal, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	e := entry{principal: p}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (auth.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return auth.Principal{}, auth.ErrSessionNotFound
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.sessions, id)
		return auth.Principal{}, auth.ErrSessionNotFound
	}
	return e.principal, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
