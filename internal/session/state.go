package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkpress/desk/internal/models"
)

// State is a snapshot of the session as seen by views. Credential and
// Identity are always both set or both empty.
type State struct {
	Credential  string       `json:"-"`
	Identity    *models.User `json:"user,omitempty"`
	Initialized bool         `json:"initialized"`
	Busy        bool         `json:"busy"`
	LastError   string       `json:"error,omitempty"`
}

func (s State) Authenticated() bool {
	return len(s.Credential) > 0 && s.Identity != nil
}

func (s State) clone() State {
	if s.Identity != nil {
		identity := *s.Identity
		s.Identity = &identity
	}
	return s
}

// CredentialExpiry reads the exp claim of a JWT credential without verifying
// it. Opaque credentials report false. The result is a display hint only; the
// content API stays the authority on validity.
func CredentialExpiry(credential string) (time.Time, bool) {
	if len(credential) == 0 {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
