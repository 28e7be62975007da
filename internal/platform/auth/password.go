package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/healingspace/healingspace/internal/platform/apperr"
)

// MaxSecretLength is the longest input bcrypt accepts, in bytes.
const MaxSecretLength = 72

// ErrSecretMismatch is returned when a password or PIN does not match its hash.
var ErrSecretMismatch = errors.New("secret does not match")

// HashSecret bcrypt-hashes a password or PIN.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret is empty")
	}
	if len(secret) > MaxSecretLength {
		return "", apperr.Invalid("secret must be at most %d bytes", MaxSecretLength)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Invalid("secret must be at most %d bytes", MaxSecretLength)
	}
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

// CompareSecret checks secret against a stored hash. needsRehash is true when
// the stored hash is a legacy unsalted SHA-256 hex digest that matched and
// should be replaced by a bcrypt hash.
func CompareSecret(hash, secret string) (needsRehash bool, err error) {
	if hash == "" || secret == "" {
		return false, ErrSecretMismatch
	}
	if isLegacySHA256(hash) {
		sum := sha256.Sum256([]byte(secret))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hash)) == 1 {
			return true, nil
		}
		return false, ErrSecretMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return false, ErrSecretMismatch
	}
	return false, nil
}

func isLegacySHA256(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
