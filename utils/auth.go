package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for every stored password.
const PasswordCost = bcrypt.DefaultCost

// UnknownClientIP is used as the raw identifier when no proxy header is present.
const UnknownClientIP = "unknown"

// Password Hashing Functions
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// SecureCompare compares two plaintext secrets in constant time.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashIdentifier returns hex(SHA-256(raw + salt)). The same raw value and
// salt always yield the same digest, which is what duplicate-vote detection
// relies on; the raw value itself is never stored.
func HashIdentifier(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

// ClientIP resolves the apparent client address: the first X-Forwarded-For
// entry, then X-Real-IP, then UnknownClientIP.
func ClientIP(header http.Header) string {
	if fwd := header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(header.Get("X-Real-IP")); real != "" {
		return real
	}
	return UnknownClientIP
}

// Fingerprint hashes the client address of a request with the given salt.
func Fingerprint(header http.Header, salt string) string {
	return HashIdentifier(ClientIP(header), salt)
}

// RandomSecret returns n random bytes, base64url encoded without padding.
func RandomSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
