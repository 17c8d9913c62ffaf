package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type BcryptKeyHasher struct {
	cost int
}

func NewBcryptKeyHasher(cost int) *BcryptKeyHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptKeyHasher{cost: cost}
}

func (h *BcryptKeyHasher) Hash(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate key hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptKeyHasher) Verify(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		// Return a generic error message regardless of the actual cause
		return fmt.Errorf("key verification failed")
	}
	return nil
}
