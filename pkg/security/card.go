package security

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const cardKeyInfo = "playdepot/card-vault/v1"

// ErrCiphertextTooShort is returned when a stored blob cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// HashCardNumber returns the hex SHA-256 digest of a digit-only card number.
// The digest is always 64 characters.
func HashCardNumber(digits string) string {
	sum := sha256.Sum256([]byte(digits))
	return hex.EncodeToString(sum[:])
}

// CardCipher seals card numbers with XChaCha20-Poly1305 under a key derived
// from the configured secret.
type CardCipher struct {
	aead cipher.AEAD
}

// NewCardCipher derives a 256-bit key from secret with HKDF-SHA256.
func NewCardCipher(secret string) (*CardCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("card encryption secret is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(cardKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive card key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init card cipher: %w", err)
	}
	return &CardCipher{aead: aead}, nil
}

// Encrypt returns nonce||ciphertext. The associated data binds the blob to
// its owner so it cannot be replayed onto another row.
func (c *CardCipher) Encrypt(plaintext, associated []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, associated), nil
}

// Decrypt reverses Encrypt.
func (c *CardCipher) Decrypt(blob, associated []byte) ([]byte, error) {
	if len(blob) < c.aead.NonceSize()+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := blob[:c.aead.NonceSize()], blob[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, associated)
	if err != nil {
		return nil, fmt.Errorf("open card ciphertext: %w", err)
	}
	return plaintext, nil
}
