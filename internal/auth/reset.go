// ABOUTME: Password reset token generation and comparison
// ABOUTME: Tokens are 32 random bytes, base64url encoded

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// ResetTokenBytes is the entropy of a reset token
const ResetTokenBytes = 32

// GenerateResetToken returns a new opaque, URL-safe reset token
func GenerateResetToken() (string, error) {
	return generateSecureToken(ResetTokenBytes)
}

// TokensEqual compares two tokens in constant time
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
