package session

import "errors"

const (
	LoginFailedMessage    = "Login failed"
	RegisterFailedMessage = "Register failed"
)

var (
	// ErrAuthFailed is returned by Login and Register when the exchange did
	// not produce a session.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSessionInvalid marks a stored credential the content API no longer
	// accepts. It is logged and never returned to callers.
	ErrSessionInvalid = errors.New("session is no longer valid")

	errIncompleteResponse = errors.New("auth response is missing the token or the user")
)
