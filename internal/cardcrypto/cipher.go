// internal/cardcrypto/cipher.go
package cardcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"bankcards/internal/util"
)

// Cipher encrypts and decrypts card numbers with AES-GCM.
// Every Encrypt call draws a fresh nonce, so equal inputs yield different ciphertexts.
type Cipher struct {
	aead cipher.AEAD
}

// ParseKey accepts either 64 hex characters (a 32-byte key) or a raw 16, 24 or 32 byte string.
func ParseKey(secret string) ([]byte, error) {
	if len(secret) == 64 {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}
	switch len(secret) {
	case 16, 24, 32:
		return []byte(secret), nil
	}
	return nil, fmt.Errorf("encryption key must be 64 hex characters or 16, 24, or 32 bytes, got %d", len(secret))
}

// NewCipher creates a Cipher from an AES key of 16, 24 or 32 bytes.
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext || tag) of plaintext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed input and tag mismatches (tampering, wrong key)
// are reported as util.ErrCipher without further detail.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", util.ErrCipher
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", util.ErrCipher
	}
	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", util.ErrCipher
	}
	return string(plaintext), nil
}
