package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// keyAlphabet is used for license keys: uppercase plus digits only,
	// so keys survive being read aloud or typed from an email.
	keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Prefixes for different entity types (Stripe-style)
const (
	PrefixEvent     = "evt"
	PrefixPublicKey = "kg_pub"
	PrefixSecretKey = "kg_sec"
)

// Generate creates a random short ID with the specified length using Base62 encoding.
// The generated ID is cryptographically random and URL-safe.
func Generate(length int) (string, error) {
	return generateFrom(alphabet, length)
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	id, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

// MustGenerateWithPrefix creates a prefixed ID and panics on error.
func MustGenerateWithPrefix(prefix string, length int) string {
	id, err := GenerateWithPrefix(prefix, length)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateLicenseKey creates a license key of the form XXXXX-XXXXX-... with
// the given number of groups and characters per group.
func GenerateLicenseKey(groups, groupLen int) (string, error) {
	if groups <= 0 {
		groups = 5
	}
	if groupLen <= 0 {
		groupLen = 5
	}

	parts := make([]string, groups)
	for i := range parts {
		part, err := generateFrom(keyAlphabet, groupLen)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}
	return strings.Join(parts, "-"), nil
}

func generateFrom(chars string, length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	charsLen := big.NewInt(int64(len(chars)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = chars[num.Int64()]
	}

	return string(result), nil
}
