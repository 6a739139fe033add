package common

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecureRandomString generates a cryptographically secure URL-safe
// random string of the specified length
func GenerateSecureRandomString(length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("length must not be negative")
	}

	// base64 expands by 4/3, so read enough bytes to cover the length
	byteLength := (length*3 + 3) / 4

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	encoded := base64.URLEncoding.EncodeToString(bytes)
	return encoded[:length], nil
}
