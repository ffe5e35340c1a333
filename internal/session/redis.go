package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"synexis/internal/auth"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL per key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr and pings it before returning.
func NewRedisStore(addr, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return connect(ctx, client)
}

// connect pings client and takes ownership of it; the client is closed when
// the ping fails.
func connect(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, p auth.Principal, ttl time.Duration) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+id, data, ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (auth.Principal, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Principal{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Principal{}, err
	}
	var p auth.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return auth.Principal{}, fmt.Errorf("decode session: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
