package auth

import (
	"context"
	"testing"

	domain "github.com/example/task-manager/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())

	u := &domain.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))

	byID, err := repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)

	exists, err := repo.EmailExists(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, repo.Ping(ctx))
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}))

	err := repo.Create(ctx, &domain.User{ID: "u-2", Name: "Other", Email: "ada@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
