package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := store.Revoke(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	// A second revoke of a live entry loses.
	first, err = store.Revoke(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, first)

	first, err = store.Revoke(ctx, "jti-expired", 0)
	require.NoError(t, err)
	assert.True(t, first)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Expired entries are pruned on the next revoke.
	first, err = store.Revoke(ctx, "jti-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "memory", store.Backend())
}

func TestRedisRevocationStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	store := NewRedisRevocationStore(client)
	tokenID := uuid.NewString()
	defer client.Del(ctx, store.prefix+tokenID)

	revoked, err := store.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	first, err := store.Revoke(ctx, tokenID, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = store.Revoke(ctx, tokenID, time.Minute)
	require.NoError(t, err)
	assert.False(t, first)

	revoked, err = store.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.PTTL(ctx, store.prefix+tokenID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.Equal(t, "redis", store.Backend())
}
