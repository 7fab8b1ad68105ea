// secrets/cipher.go
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// ErrCorruptCredential indicates a ciphertext that was not produced by the
// configured key, either because the key was rotated or the stored value was
// corrupted. Callers must surface this, never swallow it.
var ErrCorruptCredential = errors.New("credential ciphertext does not match encryption key")

// Cipher encrypts and decrypts credentials at rest using AES-256-GCM with a
// single process-wide key. The key is injected at construction; there is no
// ambient key state.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from the configured key material. Keys of any
// length are accepted and normalized to 32 bytes through SHA-256, so operators
// can supply a passphrase rather than raw key bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, errors.New("encryption key is empty")
	}
	normalized := sha256.Sum256(key)

	block, err := aes.NewCipher(normalized[:])
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns a self-contained nonce||ciphertext
// payload suitable for storage.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	// GCM requires a unique nonce per encryption under the same key.
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a payload previously produced by Encrypt. A payload that is
// too short, or whose authentication tag does not verify under the configured
// key, fails with ErrCorruptCredential.
func (c *Cipher) Decrypt(payload []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(payload) < nonceSize {
		return nil, fmt.Errorf("payload of %d bytes is too short: %w", len(payload), ErrCorruptCredential)
	}
	nonce, ciphertext := payload[:nonceSize], payload[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", ErrCorruptCredential)
	}
	return plaintext, nil
}
