// File: services/concierge/sessionStore.go
package concierge

import (
	"context"
	"encoding/json"
	"time"

	"planora/models"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
)

const sessionKeyPrefix = "concierge:sess:"

// SessionStore holds live trip sessions for the duration of a conversation.
// Entries expire with the store TTL; nothing outlives a session.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.TripState, error)
	Set(ctx context.Context, sessionID string, st *models.TripState) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in a TTL'd Redis database.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.TripState, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var st models.TripState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, sessionID string, st *models.TripState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, b, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// MemorySessionStore keeps sessions in-process; it serves tests and
// deployments without Redis. State is stored serialized so readers always get
// an independent copy, same as the Redis store.
type MemorySessionStore struct {
	cache *gocache.Cache
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: gocache.New(ttl, 2*ttl)}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*models.TripState, error) {
	raw, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	var st models.TripState
	if err := json.Unmarshal(raw.([]byte), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MemorySessionStore) Set(_ context.Context, sessionID string, st *models.TripState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.cache.SetDefault(sessionID, b)
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}
