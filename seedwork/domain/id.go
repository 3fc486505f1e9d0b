package domain

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateID generates a new UUID string for entity IDs
func GenerateID() string {
	return uuid.New().String()
}

// IsValidID checks if a string is a valid UUID
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GenerateSecret returns an unguessable hex token of 2*n characters, used
// for room access keys and director access tokens.
func GenerateSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a UUID
		// so callers always get a usable secret.
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}
