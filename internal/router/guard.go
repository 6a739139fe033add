package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Authenticator is the part of the session store the guard consults.
type Authenticator interface {
	Initialize(ctx context.Context)
	Initialized() bool
	Authenticated() bool
}

// ErrNotSettled is returned when the caller stopped waiting before the
// session finished initializing. No decision is made in that case.
var ErrNotSettled = errors.New("session not initialized")

type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

const (
	LoginPath     = "/login"
	HomePath      = "/"
	RedirectParam = "redirect"
)

// Decision is the outcome of a guard check. Target is empty for Allow.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Decide applies the access flags of a route. It is a pure function: a
// protected route without a session goes to the login page carrying the
// original target, a guest-only route with a session goes home, and
// everything else is allowed.
func Decide(meta Meta, authenticated bool, fullPath string) Decision {
	if meta.RequiresAuth && !authenticated {
		return Decision{
			Outcome: RedirectLogin,
			Target:  LoginTarget(fullPath),
		}
	}

	if meta.GuestOnly && authenticated {
		return Decision{
			Outcome: RedirectHome,
			Target:  HomePath,
		}
	}

	return Decision{Outcome: Allow}
}

// LoginTarget is the login path that returns to fullPath afterwards.
func LoginTarget(fullPath string) string {
	query := url.Values{}
	query.Set(RedirectParam, fullPath)
	return LoginPath + "?" + query.Encode()
}

// SafeRedirect returns target when it is a path on this site, otherwise the
// home path. It is used to honor the redirect parameter after login.
func SafeRedirect(target string) string {
	if len(target) == 0 || !strings.HasPrefix(target, "/") {
		return HomePath
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return HomePath
	}

	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || len(u.Host) > 0 {
		return HomePath
	}

	return target
}

type Guard struct {
	auth Authenticator
}

func NewGuard(auth Authenticator) *Guard {
	return &Guard{auth: auth}
}

// Check waits for the session to be initialized, then decides whether the
// transition to match may proceed. If ctx ends first it returns
// ErrNotSettled.
func (g *Guard) Check(ctx context.Context, match *Match) (Decision, error) {
	g.auth.Initialize(ctx)

	if !g.auth.Initialized() {
		logrus.WithFields(logrus.Fields{
			"route": match.Name,
			"path":  match.FullPath,
		}).Debugln("Navigation cancelled before the session settled")

		return Decision{}, fmt.Errorf("%w: %w", ErrNotSettled, context.Cause(ctx))
	}

	authenticated := g.auth.Authenticated()
	decision := Decide(match.Meta, authenticated, match.FullPath)

	logrus.WithFields(logrus.Fields{
		"route":         match.Name,
		"path":          match.FullPath,
		"authenticated": authenticated,
		"outcome":       decision.Outcome.String(),
	}).Debugln("Navigation guard")

	return decision, nil
}
