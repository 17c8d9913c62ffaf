package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/keygate-io/keygate/internal/shared/config"
)

// SecretBox encrypts license secrets at rest with AES-256-GCM and computes
// the deterministic keyed lookup digest. The two keys must be distinct so
// the digest leaks nothing about the encryption key.
type SecretBox struct {
	aead     cipher.AEAD
	indexKey []byte
}

// NewSecretBox builds a SecretBox from the configured hex-encoded keys.
func NewSecretBox(cfg *config.CryptoConfig) (*SecretBox, error) {
	secretKey, err := decodeKey(cfg.SecretKey, "crypto.secret_key")
	if err != nil {
		return nil, err
	}
	indexKey, err := decodeKey(cfg.IndexKey, "crypto.index_key")
	if err != nil {
		return nil, err
	}
	if hmac.Equal(secretKey, indexKey) {
		return nil, fmt.Errorf("crypto.secret_key and crypto.index_key must differ")
	}

	block, err := aes.NewCipher(secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &SecretBox{aead: aead, indexKey: indexKey}, nil
}

// Encrypt seals the plaintext with a fresh random nonce. The nonce is
// prepended to the ciphertext and the whole value is base64-encoded.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (b *SecretBox) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}
	if len(raw) < b.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// Digest computes the HMAC-SHA256 lookup digest of a plaintext secret.
// Equal inputs always produce equal digests, so it can be indexed.
func (b *SecretBox) Digest(plaintext string) string {
	mac := hmac.New(sha256.New, b.indexKey)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeKey(encoded, name string) ([]byte, error) {
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must be 32 bytes (64 hex chars), got %d bytes", name, len(key))
	}
	return key, nil
}
