// Package auth implements the two credential primitives of the
// authentication subsystem: password hashing (PBKDF2) and signed bearer
// tokens (HS256 JWT). Both are stateless after construction and safe for
// concurrent use.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mrememisaac/communityauth/internal/common"
)

const (
	saltLength = 16
	keyLength  = 32

	// DefaultIterations is the PBKDF2-SHA256 work factor. The value keeps a
	// single derivation in the tens of milliseconds on commodity hardware
	// while staying expensive enough to resist offline brute force.
	DefaultIterations = 310_000
)

// Hasher derives and verifies password credentials. The stored credential is
// base64(salt||derivedKey): a fresh 16-byte random salt followed by a
// 32-byte PBKDF2-SHA256 key.
type Hasher struct {
	iterations int
}

func NewHasher() *Hasher {
	return &Hasher{iterations: DefaultIterations}
}

// NewHasherWithIterations overrides the work factor. Credentials derived
// with one iteration count never verify under another, so this is for tests
// and benchmarks, not for mixing in production.
func NewHasherWithIterations(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives a storable credential from password. Every call draws a fresh
// random salt, so two hashes of the same password differ.
//
// An empty password is a programmer error and panics; callers validate user
// input before reaching the hasher.
func (h *Hasher) Hash(password string) string {
	if password == "" {
		panic("auth: Hash called with empty password")
	}

	salt := common.GenerateRandByteArray(saltLength)
	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)

	blob := make([]byte, 0, saltLength+keyLength)
	blob = append(blob, salt...)
	blob = append(blob, key...)

	return base64.StdEncoding.EncodeToString(blob)
}

// Verify reports whether password matches the stored credential. A credential
// that cannot be decoded, or has the wrong length, verifies as false rather
// than failing: malformed stored data must never take the caller down.
//
// The final comparison is constant-time so response timing does not reveal
// how many leading key bytes matched.
func (h *Hasher) Verify(password, credential string) bool {
	blob, err := base64.StdEncoding.DecodeString(credential)
	if err != nil || len(blob) != saltLength+keyLength {
		return false
	}

	salt, stored := blob[:saltLength], blob[saltLength:]
	derived := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)

	return subtle.ConstantTimeCompare(derived, stored) == 1
}
