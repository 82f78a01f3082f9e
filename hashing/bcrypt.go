// Package hashing provides the password hash service the engine consumes.
package hashing

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 12

var (
	ErrPasswordTooLong = errors.New("password exceeds maximum length of 72 bytes")
)

// Hasher turns plaintext secrets into digests and verifies them. The engine
// never sees plaintext passwords outside Verify/Hash calls.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// Bcrypt is the default Hasher.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. A cost of 0 selects DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash creates a bcrypt digest of the password.
func (b *Bcrypt) Hash(plain string) (string, error) {
	// bcrypt has a 72-byte limit
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares a password with its digest.
func (b *Bcrypt) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
