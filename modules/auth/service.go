package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/task-manager/domain/user"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// MaxNameLength bounds the display name in characters.
const MaxNameLength = 100

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrNameRequired is returned when the trimmed name is empty.
	ErrNameRequired = errors.New("name is required")
	// ErrNameTooLong is returned when the name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("name must be less than 100 characters")
	// ErrTokenRevoked is returned for tokens presented after logout or rotation.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo    *UserRepository
	hasher  *PasswordHasher
	jwt     *JWTManager
	revoked RevocationStore
	sfGroup singleflight.Group
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, revoked RevocationStore) *AuthService {
	return &AuthService{
		repo:    repo,
		hasher:  hasher,
		jwt:     jwt,
		revoked: revoked,
	}
}

// Signup creates a new user account and signs it in.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, *domain.TokenPair, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, nil, ErrNameTooLong
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.generateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(user.ID, user.Email)
}

// RefreshTokens rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// Verify user still exists
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Only the first concurrent refresh of a token may rotate it.
	first, err := s.revoke(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrTokenRevoked)
	}
	return s.generateTokenPair(user.ID, user.Email)
}

// Logout revokes the access token and, when given, the refresh token.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := s.jwt.ValidateAccessToken(accessToken)
	if err != nil {
		return err
	}
	if _, err := s.revoke(ctx, claims); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}
	refresh, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		// The session is already closed by the access token revocation.
		return nil
	}
	if refresh.UserID != claims.UserID {
		return ErrInvalidToken
	}
	_, err = s.revoke(ctx, refresh)
	return err
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// checkRevoked collapses concurrent lookups of the same token id into one store call.
func (s *AuthService) checkRevoked(ctx context.Context, tokenID string) error {
	val, err, _ := s.sfGroup.Do(tokenID, func() (any, error) {
		return s.revoked.IsRevoked(ctx, tokenID)
	})
	if err != nil {
		return fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked, _ := val.(bool); revoked {
		return ErrTokenRevoked
	}
	return nil
}

// revoke reports whether this call revoked the token, false if it already was.
func (s *AuthService) revoke(ctx context.Context, claims *JWTClaims) (bool, error) {
	ttl := time.Until(claims.ExpiresAt.Time)
	first, err := s.revoked.Revoke(ctx, claims.ID, ttl)
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}
	return first, nil
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(userID, email string) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

// normalizeEmail lowercases a bare address and rejects display-name forms.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
