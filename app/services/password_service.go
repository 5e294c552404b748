package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordService hashes and verifies subscriber passwords. bcrypt embeds a
// random salt in each digest, so hashing the same password twice yields
// different digests and verification needs no external salt storage.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// PasswordServiceImpl implements PasswordService using bcrypt
type PasswordServiceImpl struct {
	cost int
}

// NewPasswordService creates a new password service with the given bcrypt cost
func NewPasswordService(cost int) (PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}

	return &PasswordServiceImpl{cost: cost}, nil
}

// Hash generates a bcrypt digest of the password
func (s *PasswordServiceImpl) Hash(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// Verify compares a bcrypt digest with a plaintext password
func (s *PasswordServiceImpl) Verify(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
