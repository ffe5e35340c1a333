package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"synexis/internal/store"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so
// callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

const defaultBcryptCost = 10

// Service implements registration, login and session lookup.
type Service struct {
	users    store.Store
	sessions SessionStore
	ttl      time.Duration
	cost     int
}

// NewService wires the user store and session store together.
func NewService(users store.Store, sessions SessionStore, ttl time.Duration) *Service {
	return &Service{users: users, sessions: sessions, ttl: ttl, cost: defaultBcryptCost}
}

// TTL is the lifetime given to new sessions.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (store.User, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, store.ErrUserExists
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return store.User{}, fmt.Errorf("lookup user: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.CreateUser(ctx, name, email, string(hash))
}

// Login verifies credentials and opens a session, returning its id.
func (s *Service) Login(ctx context.Context, email, password string) (string, Principal, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return "", Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Principal{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", Principal{}, ErrInvalidCredentials
	}
	p := Principal{Name: user.Name, Email: user.Email}
	id, err := s.sessions.Create(ctx, p, s.ttl)
	if err != nil {
		return "", Principal{}, fmt.Errorf("create session: %w", err)
	}
	return id, p, nil
}

// Authenticate resolves a session id to its principal.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (Principal, error) {
	if sessionID == "" {
		return Principal{}, ErrSessionNotFound
	}
	return s.sessions.Get(ctx, sessionID)
}

// Logout drops the session. Unknown ids are not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}
