package auth

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// generateID returns a lowercase base32 string of 40 characters (200 random bits).
func generateID() (string, error) {
	buf := make([]byte, 25)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(idEncoding.EncodeToString(buf)), nil
}
