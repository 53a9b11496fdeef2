package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialHasher turns a plaintext secret into its stored representation
// and checks a plaintext against a stored value.
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Check(secret, stored string) bool
}

// BcryptHasher is the default hasher.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

// Hash hashes a password using bcrypt
func (h *BcryptHasher) Hash(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	return string(bytes), err
}

// Check checks if a password matches a bcrypt hash
func (h *BcryptHasher) Check(secret, stored string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret))
	return err == nil
}

// SHA256Hasher is a deterministic hex digest, for stores holding unsalted
// digests. Check(p, s) holds exactly when Hash(p) == s.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(secret string) (string, error) {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Check(secret, stored string) bool {
	hashed, _ := h.Hash(secret)
	return subtle.ConstantTimeCompare([]byte(hashed), []byte(stored)) == 1
}

// NewHasher picks a hasher by name: "bcrypt" (default) or "sha256".
func NewHasher(name string) (CredentialHasher, error) {
	switch name {
	case "", "bcrypt":
		return NewBcryptHasher(), nil
	case "sha256":
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
}
