package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/example/task-manager/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(database.MemoryPath)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestService(t *testing.T) (*AuthService, *MemoryRevocationStore) {
	t.Helper()
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())
	revoked := NewMemoryRevocationStore()
	svc := NewAuthService(repo, NewPasswordHasherWithCost(bcrypt.MinCost), NewJWTManager(testJWTConfig()), revoked)
	return svc, revoked
}

func TestEmailValidation(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "valid email", email: "user@example.com", want: true},
		{name: "valid email with subdomain", email: "user@mail.example.com", want: true},
		{name: "valid email with plus", email: "user+tag@example.com", want: true},
		{name: "mixed case is normalized", email: "User@Example.com", want: true},
		{name: "missing @", email: "userexample.com", want: false},
		{name: "missing domain", email: "user@", want: false},
		{name: "missing local part", email: "@example.com", want: false},
		{name: "empty string", email: "", want: false},
		{name: "multiple @", email: "user@@example.com", want: false},
		{name: "display name form", email: "Bob <bob@example.com>", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEmail(tt.email)
			if tt.want {
				require.NoError(t, err)
				_, parseErr := mail.ParseAddress(got)
				assert.NoError(t, parseErr)
				assert.Equal(t, strings.ToLower(tt.email), got)
			} else {
				assert.ErrorIs(t, err, ErrInvalidEmail)
			}
		})
	}
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, tokens, err := svc.Signup(ctx, "  Alice  ", "Alice@Example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "Password1", user.PasswordHash)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(15*60), tokens.ExpiresIn)

	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.TokenID)

	loginTokens, err := svc.Login(ctx, "alice@example.com", "Password1")
	require.NoError(t, err)
	assert.NotEqual(t, tokens.AccessToken, loginTokens.AccessToken)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestAuthService_SignupValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		want     error
	}{
		{name: "empty name", userName: "   ", email: "a@example.com", password: "Password1", want: ErrNameRequired},
		{name: "long name", userName: strings.Repeat("n", 101), email: "a@example.com", password: "Password1", want: ErrNameTooLong},
		{name: "bad email", userName: "A", email: "nope", password: "Password1", want: ErrInvalidEmail},
		{name: "short password", userName: "A", email: "a@example.com", password: "Pa1", want: ErrWeakPassword},
		{name: "weak password", userName: "A", email: "a@example.com", password: "password1", want: ErrPasswordComplexity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, _, err := svc.Signup(context.Background(), tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "Other", "ALICE@example.com", "Password2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_LoginFailuresAreGeneric(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "WrongPass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "Password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, tokens, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)

	rotated, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The presented refresh token cannot be replayed.
	_, err = svc.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.RefreshTokens(ctx, rotated.RefreshToken)
	assert.NoError(t, err)

	// An access token is not a refresh token.
	_, err = svc.RefreshTokens(ctx, rotated.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// lateRevocationStore never sees a revocation on lookup, as when every
// concurrent check runs before the first rotation lands.
type lateRevocationStore struct {
	*MemoryRevocationStore
}

func (lateRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, nil
}

func TestAuthService_ConcurrentRefreshRotatesOnce(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())
	store := lateRevocationStore{NewMemoryRevocationStore()}
	svc := NewAuthService(repo, NewPasswordHasherWithCost(bcrypt.MinCost), NewJWTManager(testJWTConfig()), store)
	ctx := context.Background()

	_, tokens, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)

	const replays = 10
	start := make(chan struct{})
	errs := make(chan error, replays)
	var wg sync.WaitGroup
	for i := 0; i < replays; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrTokenRevoked)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAuthService_Logout(t *testing.T) {
	svc, revoked := newTestService(t)
	ctx := context.Background()
	_, tokens, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.AccessToken, tokens.RefreshToken))
	assert.Equal(t, 2, revoked.Len())

	_, err = svc.ValidateToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// A fresh login still works.
	again, err := svc.Login(ctx, "alice@example.com", "Password1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, again.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_LogoutRejectsForeignRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, alice, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)
	_, bob, err := svc.Signup(ctx, "Bob", "bob@example.com", "Password1")
	require.NoError(t, err)

	err = svc.Logout(ctx, alice.AccessToken, bob.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.RefreshTokens(ctx, bob.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_ConcurrentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, tokens, err := svc.Signup(ctx, "Alice", "alice@example.com", "Password1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ValidateToken(ctx, tokens.AccessToken)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
