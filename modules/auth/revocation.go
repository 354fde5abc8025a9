package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records revoked token ids until the token would have expired anyway.
// Revoke reports false when the id was already revoked, so exactly one caller
// wins a race to revoke the same token.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Backend() string
}

// MemoryRevocationStore keeps revoked ids in process memory.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)

// NewMemoryRevocationStore creates an empty in-memory revocation list.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiry := range s.entries {
		if !expiry.After(now) {
			delete(s.entries, id)
		}
	}
	if _, ok := s.entries[tokenID]; ok {
		return false, nil
	}
	if ttl > 0 {
		s.entries[tokenID] = now.Add(ttl)
	}
	return true, nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.entries[tokenID]
	return ok && expiry.After(s.now()), nil
}

func (s *MemoryRevocationStore) Backend() string {
	return "memory"
}

// Len returns the number of live and not yet pruned entries.
func (s *MemoryRevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisRevocationStore shares the revocation list between instances.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// NewRedisRevocationStore creates a revocation list on the given client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{
		client: client,
		prefix: "auth:revoked:",
	}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return s.client.SetNX(ctx, s.prefix+tokenID, "1", ttl).Result()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisRevocationStore) Backend() string {
	return "redis"
}
