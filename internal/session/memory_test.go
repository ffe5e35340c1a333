package session

import (
	"context"
	"testing"
	"time"

	"synexis/internal/auth"
)

// Both stores must satisfy the interface the identity layer depends on.
var (
	_ auth.SessionStore = (*MemoryStore)(nil)
	_ auth.SessionStore = (*RedisStore)(nil)
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := auth.Principal{Name: "Ada", Email: "ada@example.com"}

	id, err := s.Create(ctx, p, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected session id")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, id); err != auth.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	id, _ := s.Create(ctx, auth.Principal{Email: "ada@example.com"}, time.Minute)

	now = now.Add(30 * time.Second)
	if _, err := s.Get(ctx, id); err != nil {
		t.Fatalf("session should still be live: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := s.Get(ctx, id); err != auth.ErrSessionNotFound {
		t.Errorf("expected expired session, got %v", err)
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "missing"); err != auth.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
