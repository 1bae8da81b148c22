package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Operator password limits. bcrypt only reads the first 72 bytes, so longer
// passwords are rejected instead of being silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// HashPassword checks the operator password limits and returns a bcrypt hash
func HashPassword(plain string) (string, error) {
	if n := utf8.RuneCountInString(plain); n < MinPasswordLength {
		return "", fmt.Errorf("%w: need at least %d characters, got %d", ErrPasswordTooShort, MinPasswordLength, n)
	}
	if len(plain) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: at most %d bytes, got %d", ErrPasswordTooLong, MaxPasswordBytes, len(plain))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches a stored bcrypt hash.
// Empty or malformed hashes never match.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
