package common

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
)

// IsValidEndpoint reports whether raw is an absolute http(s) URL with a host.
func IsValidEndpoint(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && len(parsed.Host) > 0
}

// IsAllDigits checks if a string contains only digits (0-9)
func IsAllDigits(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// ParseID parses a positive resource identifier.
func ParseID(value string) (uint, error) {
	if !IsAllDigits(value) {
		return 0, fmt.Errorf("invalid id %q: must be a positive number", value)
	}

	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive number", value)
	}

	return uint(id), nil
}
