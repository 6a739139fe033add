// Package session owns the authenticated session of the desk process: the
// bearer credential, the profile it belongs to, and whether the session has been
// restored from storage yet.
//
// A Store is created once at startup and shared by every surface. It is only
// changed through Initialize, Login, Register, Logout and RefreshProfile, and
// every path that touches the credential sets or clears the profile with it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/storage"
)

// TokenStorageKey is the durable storage key of the credential.
const TokenStorageKey = "auth_token"

const DefaultInitTimeout = 10 * time.Second

// AuthService exchanges credentials with the content API. FetchProfile
// authenticates with the store's ambient credential (see Store.Token).
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	FetchProfile(ctx context.Context) (*models.User, error)
}

type Option func(*Store)

// WithInitTimeout bounds the profile fetch made while restoring a stored
// credential. Zero waits for as long as the content API takes.
func WithInitTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.initTimeout = timeout
	}
}

type Store struct {
	auth        AuthService
	storage     storage.Storage
	initTimeout time.Duration

	mu       sync.Mutex
	state    State
	pending  string // stored credential being verified by Initialize
	inflight int    // running login/register exchanges
	initDone chan struct{}

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(State)
}

func New(auth AuthService, store storage.Storage, opts ...Option) *Store {
	s := &Store{
		auth:        auth,
		storage:     store,
		initTimeout: DefaultInitTimeout,
		subscribers: make(map[int]func(State)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Authenticated()
}

func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Initialized
}

// Token is the ambient credential used to authorize API requests. While a
// stored credential is being verified it returns that credential, even though
// it is not published in State yet.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Credential) > 0 {
		return s.state.Credential
	}
	return s.pending
}

// Initialize restores the session from durable storage. Only the first call
// does any work; concurrent callers share it and later callers return at once.
// The restore is detached from ctx, so a caller that gives up early does not
// abort it; it is bounded by the init timeout instead. Initialization always
// completes, and a stored credential the API rejects is erased.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state.Initialized {
		s.mu.Unlock()
		return
	}

	done := s.initDone
	if done == nil {
		done = make(chan struct{})
		s.initDone = done
		go s.runInitialize(context.WithoutCancel(ctx), done)
	}
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		logrus.WithError(ctx.Err()).Debugln("Stopped waiting for session initialization")
	}
}

func (s *Store) runInitialize(ctx context.Context, done chan struct{}) {
	if s.initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.initTimeout)
		defer cancel()
	}

	s.restore(ctx)

	s.mu.Lock()
	s.state.Initialized = true
	s.mu.Unlock()

	close(done)
	s.notify()
}

func (s *Store) restore(ctx context.Context) {
	token, ok := s.storage.Get(TokenStorageKey)
	if !ok || len(token) == 0 {
		logrus.Debugln("No stored credential found")
		return
	}

	s.mu.Lock()
	s.pending = token
	s.mu.Unlock()

	profile, err := s.auth.FetchProfile(ctx)
	if err == nil && profile == nil {
		err = fmt.Errorf("empty profile")
	}

	if err != nil {
		logrus.WithError(fmt.Errorf("%w: %w", ErrSessionInvalid, err)).
			Warnln("Failed to restore session")
		s.invalidate(token)
		return
	}

	s.mu.Lock()
	if s.pending == token {
		s.pending = ""
	}
	// A login that finished meanwhile wins over the stored credential
	if len(s.state.Credential) == 0 {
		identity := *profile
		s.state.Credential = token
		s.state.Identity = &identity
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"username": profile.Username,
	}).Debugln("Restored session")
}

// Login exchanges a username and password for a session. On failure LastError
// is set to a generic message, the session is left as it was, and the returned
// error matches ErrAuthFailed.
func (s *Store) Login(ctx context.Context, username string, password string) (*models.User, error) {
	release := s.acquire()
	defer release()

	resp, err := s.auth.Login(ctx, models.LoginRequest{
		Username: username,
		Password: password,
	})

	return s.completeExchange(resp, err, LoginFailedMessage)
}

// Register creates an account and signs in with it. It has the same contract
// as Login.
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	release := s.acquire()
	defer release()

	resp, err := s.auth.Register(ctx, req)

	return s.completeExchange(resp, err, RegisterFailedMessage)
}

func (s *Store) completeExchange(resp *models.AuthResponse, err error, failure string) (*models.User, error) {
	if err == nil && !resp.IsComplete() {
		err = errIncompleteResponse
	}

	if err != nil {
		s.mu.Lock()
		s.state.LastError = failure
		s.mu.Unlock()

		logrus.WithError(err).Warnln(failure)
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	s.setSession(resp.Token, resp.User)

	logrus.WithFields(logrus.Fields{
		"username": resp.User.Username,
	}).Infoln("Signed in")

	user := *resp.User
	return &user, nil
}

// Logout clears the session and the stored credential. It never fails.
func (s *Store) Logout() {
	s.setSession("", nil)
	logrus.Infoln("Signed out")
}

// RefreshProfile refetches the profile of the current credential. A failure
// means the credential is no longer usable and tears the session down.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.Lock()
	token := s.state.Credential
	s.mu.Unlock()

	if len(token) == 0 {
		return
	}

	profile, err := s.auth.FetchProfile(ctx)
	if err == nil && profile == nil {
		err = fmt.Errorf("empty profile")
	}

	if err != nil {
		logrus.WithError(fmt.Errorf("%w: %w", ErrSessionInvalid, err)).
			Warnln("Failed to refresh profile")
		s.invalidate(token)
		return
	}

	s.mu.Lock()
	if s.state.Credential == token {
		identity := *profile
		s.state.Identity = &identity
	}
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	state := s.State()

	s.subMu.Lock()
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

// acquire marks an exchange as in flight and clears the previous error. The
// returned release must run on every exit path.
func (s *Store) acquire() func() {
	s.mu.Lock()
	s.inflight++
	s.state.Busy = true
	s.state.LastError = ""
	s.mu.Unlock()
	s.notify()

	return func() {
		s.mu.Lock()
		s.inflight--
		s.state.Busy = s.inflight > 0
		s.mu.Unlock()
		s.notify()
	}
}

// setSession publishes credential and identity together and mirrors the
// credential into storage. An empty token or nil user clears both.
func (s *Store) setSession(token string, user *models.User) {
	s.mu.Lock()
	s.pending = ""
	if len(token) == 0 || user == nil {
		token = ""
		s.state.Credential = ""
		s.state.Identity = nil
	} else {
		identity := *user
		s.state.Credential = token
		s.state.Identity = &identity
	}
	s.mu.Unlock()

	if len(token) > 0 {
		if err := s.storage.Set(TokenStorageKey, token); err != nil {
			logrus.WithError(err).Warnln("Failed to persist credential")
		}
	} else {
		if err := s.storage.Remove(TokenStorageKey); err != nil {
			logrus.WithError(err).Warnln("Failed to remove stored credential")
		}
	}

	s.notify()
}

// invalidate tears down the session built on token. A newer credential from a
// login that raced the failing request is left alone.
func (s *Store) invalidate(token string) {
	s.mu.Lock()
	if s.pending == token {
		s.pending = ""
	}
	if len(s.state.Credential) == 0 || s.state.Credential == token {
		s.state.Credential = ""
		s.state.Identity = nil
	}
	s.mu.Unlock()

	if stored, ok := s.storage.Get(TokenStorageKey); ok && stored == token {
		if err := s.storage.Remove(TokenStorageKey); err != nil {
			logrus.WithError(err).Warnln("Failed to remove stored credential")
		}
	}

	s.notify()
}
