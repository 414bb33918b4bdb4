// Package auth implements password hashing, JWT issuance/verification, and
// the refresh-token, login, and registration flows.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize       = 16
	hashIterations = 100000
	hashKeyLen     = 32
)

// GenerateSalt returns a fresh random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("auth: generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives the stored digest for a password and salt
// (PBKDF2-HMAC-SHA256, 100k iterations, base64-encoded).
func HashPassword(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLen, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

// VerifyPassword re-derives the digest from the candidate password and
// compares it against the stored one in constant time.
func VerifyPassword(password string, salt []byte, digest string) bool {
	derived := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(digest)) == 1
}
