package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// fieldPrefix marks values written by EncryptField so rows stored in
// plaintext before a key was configured still read back.
const fieldPrefix = "enc:v1:"

// PHIEncryptor provides AES-256-GCM field-level encryption for profile PHI
// (full name, date of birth, conditions).
type PHIEncryptor struct {
	aead cipher.AEAD
}

// NewPHIEncryptor creates a new PHIEncryptor with the given 32-byte AES-256 key.
func NewPHIEncryptor(key []byte) (*PHIEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("phi encryptor: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create GCM: %w", err)
	}

	return &PHIEncryptor{aead: aead}, nil
}

// NewPHIEncryptorFromHex builds an encryptor from a 64-char hex key. An empty
// key yields a nil encryptor, which EncryptField/DecryptField treat as
// passthrough.
func NewPHIEncryptorFromHex(hexKey string) (*PHIEncryptor, error) {
	if hexKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: decode key: %w", err)
	}
	return NewPHIEncryptor(key)
}

// Encrypt encrypts the plaintext string and returns a base64-encoded ciphertext
// with the nonce prepended.
func (e *PHIEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi encrypt: generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decodes the base64 ciphertext, extracts the prepended nonce, and decrypts.
func (e *PHIEncryptor) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: base64 decode: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("phi decrypt: ciphertext too short")
	}
	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: %w", err)
	}
	return string(plaintext), nil
}

// EncryptField encrypts a column value. Empty values and a nil encryptor pass
// through unchanged.
func (e *PHIEncryptor) EncryptField(v string) (string, error) {
	if e == nil || v == "" || strings.HasPrefix(v, fieldPrefix) {
		return v, nil
	}
	ct, err := e.Encrypt(v)
	if err != nil {
		return "", err
	}
	return fieldPrefix + ct, nil
}

// DecryptField reverses EncryptField. Values without the field prefix are
// returned as stored.
func (e *PHIEncryptor) DecryptField(v string) (string, error) {
	if !strings.HasPrefix(v, fieldPrefix) {
		return v, nil
	}
	if e == nil {
		return "", fmt.Errorf("phi decrypt: value is encrypted but no key is configured")
	}
	return e.Decrypt(strings.TrimPrefix(v, fieldPrefix))
}
