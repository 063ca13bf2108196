package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

// verifierEntropyBytes is the number of random bytes behind a code verifier.
// 32 bytes encodes to 43 characters, the RFC 7636 minimum.
const verifierEntropyBytes = 32

// GenerateVerifier creates a new PKCE code verifier: 32 bytes of
// cryptographically secure randomness, base64url-encoded without padding.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[GenerateVerifier] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ChallengeS256 derives the S256 code challenge from a verifier.
func ChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
