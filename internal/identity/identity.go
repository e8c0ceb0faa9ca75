// Package identity issues browser session tokens and derives the customer key
// used to correlate inquiries opened from the same session.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const sessionBytes = 32

// NewSession returns a 256-bit random token, hex encoded.
func NewSession() (string, error) {
	buf := make([]byte, sessionBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("identity: read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeriveCustomerKey hashes the session token only. Contact details never
// contribute, so the key cannot be tied back to an email or phone number.
func DeriveCustomerKey(sessionToken string) string {
	sum := sha256.Sum256([]byte("customer:" + sessionToken))
	return hex.EncodeToString(sum[:])
}

// ValidSession reports whether token has the shape NewSession produces.
func ValidSession(token string) bool {
	if len(token) != sessionBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
