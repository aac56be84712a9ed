package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt costs accepted by NewPasswordHasher; others are clamped
const (
	DefaultCost = 12
	MinCost     = 10
	MaxCost     = 14
)

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordBytes
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher hashes account passwords with bcrypt
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher using cost, clamped to [MinCost, MaxCost]
func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: min(max(cost, MinCost), MaxCost)}
}

// NewDefaultPasswordHasher creates a password hasher with default cost
func NewDefaultPasswordHasher() *PasswordHasher {
	return NewPasswordHasher(DefaultCost)
}

// Hash returns the bcrypt hash of password
func (ph *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ph.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare returns nil when hash was produced from password
func (ph *PasswordHasher) Compare(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// NeedsRehash reports whether hash was made with a different cost than ph uses
func (ph *PasswordHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != ph.cost
}
