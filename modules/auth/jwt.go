package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature, issuer or shape checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned once a token is past its exp claim.
	ErrExpiredToken = errors.New("token has expired")
)

// Values of the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
}

// DefaultJWTConfig returns the default token lifetimes for the given secret.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		SecretKey:            secret,
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "task-manager",
	}
}

// JWTClaims is the payload of both session tokens. The jti (RegisteredClaims.ID)
// is what the revocation store keys on.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies the HS256 tokens that make up a session.
type JWTManager struct {
	key       []byte
	issuer    string
	lifetimes map[string]time.Duration
	parser    *jwt.Parser
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		key:    []byte(config.SecretKey),
		issuer: config.Issuer,
		lifetimes: map[string]time.Duration{
			TokenTypeAccess:  config.AccessTokenDuration,
			TokenTypeRefresh: config.RefreshTokenDuration,
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(config.Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken issues a short-lived access token for the user.
func (m *JWTManager) GenerateAccessToken(userID, email string) (string, error) {
	return m.sign(userID, email, TokenTypeAccess)
}

// GenerateRefreshToken issues a refresh token for the user.
func (m *JWTManager) GenerateRefreshToken(userID, email string) (string, error) {
	return m.sign(userID, email, TokenTypeRefresh)
}

func (m *JWTManager) sign(userID, email, kind string) (string, error) {
	issued := time.Now()
	claims := &JWTClaims{
		UserID:    userID,
		Email:     email,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.lifetimes[kind])),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (m *JWTManager) keyFor(*jwt.Token) (any, error) {
	return m.key, nil
}

// ValidateToken verifies a token of either type and returns its claims.
// Expiry is reported as ErrExpiredToken, every other failure as ErrInvalidToken.
func (m *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if _, err := m.parser.ParseWithClaims(tokenString, claims, m.keyFor); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.ID == "" || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken validates an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return m.expect(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return m.expect(tokenString, TokenTypeRefresh)
}

func (m *JWTManager) expect(tokenString, kind string) (*JWTClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	switch {
	case err != nil:
		return nil, err
	case claims.TokenType != kind:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessTokenDuration is the access token lifetime in whole seconds, as
// reported in expires_in.
func (m *JWTManager) AccessTokenDuration() int64 {
	return int64(m.lifetimes[TokenTypeAccess] / time.Second)
}
