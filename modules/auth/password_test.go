package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "Password123"},
		{name: "complex password", password: "P@ssw0rd!#$%^&*()"},
		{name: "unicode password", password: "Пароль123abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if hash == "" || hash == tt.password {
				t.Fatalf("Hash() = %q, want a bcrypt hash", hash)
			}
			if !hasher.Verify(tt.password, hash) {
				t.Error("Verify() returned false for correct password")
			}
			if hasher.Verify(tt.password+"x", hash) {
				t.Error("Verify() returned true for wrong password")
			}
		})
	}
}

func TestPasswordHasher_UniqueHashes(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	hash1, err := hasher.Hash("Password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, err := hasher.Hash("Password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes, want distinct salts")
	}
}

func TestNewPasswordHasherWithCost_OutOfRange(t *testing.T) {
	if got := NewPasswordHasherWithCost(0).cost; got != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", got, DefaultBcryptCost)
	}
	if got := NewPasswordHasherWithCost(bcrypt.MaxCost + 1).cost; got != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", got, DefaultBcryptCost)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{name: "valid", password: "Password1", want: nil},
		{name: "exactly 8", password: "Abcdefg1", want: nil},
		{name: "exactly 72 bytes", password: "Aa1" + strings.Repeat("x", 69), want: nil},
		{name: "too short", password: "Abc1", want: ErrWeakPassword},
		{name: "empty", password: "", want: ErrWeakPassword},
		{name: "too long", password: "Aa1" + strings.Repeat("x", 70), want: ErrPasswordTooLong},
		{name: "no uppercase", password: "password1", want: ErrPasswordComplexity},
		{name: "no lowercase", password: "PASSWORD1", want: ErrPasswordComplexity},
		{name: "no digit", password: "Passwordx", want: ErrPasswordComplexity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePassword(tt.password); got != tt.want {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}
