package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

func TestGenerateSecureRandomString(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"empty", 0},
		{"not a multiple of four", 7},
		{"csrf token", 32},
		{"cookie secret", 48},
		{"long", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := GenerateSecureRandomString(tt.length)
			require.NoError(t, err)
			assert.Len(t, result, tt.length)
			// Tokens are embedded in form fields and cookies unescaped
			assert.Regexp(t, urlSafe, result)
		})
	}
}

func TestGenerateSecureRandomString_Unique(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		result, err := GenerateSecureRandomString(32)
		require.NoError(t, err)

		_, duplicate := seen[result]
		require.False(t, duplicate, "duplicate token %s", result)
		seen[result] = struct{}{}
	}
}

func TestGenerateSecureRandomString_Negative(t *testing.T) {
	_, err := GenerateSecureRandomString(-1)
	assert.Error(t, err)
}
