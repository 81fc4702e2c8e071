// Package session holds the signed-in user's token and profile.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ziadkadry99/studyguide/internal/kv"
)

var (
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidLogin is returned when an authenticator hands back an
	// incomplete token/user pair.
	ErrInvalidLogin = errors.New("authenticator returned an incomplete session")
)

// User is the profile of the signed-in user.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Session is a copy of the current session. User is nil iff Token is empty.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Credentials are what a user types to sign in.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Authenticator exchanges credentials for a token and profile.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
}

// State owns the session. All changes go through Login, Logout and
// UpdateProfile.
type State struct {
	mu     sync.RWMutex
	token  string
	user   *User
	auth   Authenticator
	store  kv.Store
	logger *slog.Logger
}

// New restores the persisted session from store. A token without a profile,
// or a profile without a token, is discarded.
func New(ctx context.Context, store kv.Store, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{store: store, logger: logger}

	token, err := kv.GetOr(ctx, store, kv.KeyToken, "")
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	raw, err := kv.GetOr(ctx, store, kv.KeyUser, "")
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	var user *User
	if raw != "" {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.Warn("discarding unreadable persisted user", "error", err)
		} else {
			user = &u
		}
	}

	switch {
	case token != "" && user != nil:
		s.token, s.user = token, user
	case token != "" || raw != "":
		logger.Warn("discarding half-persisted session")
		if err := s.clearPersisted(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetAuthenticator installs the provider used by Login.
func (s *State) SetAuthenticator(a Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = a
}

// Login authenticates and, on success, sets token and user together.
func (s *State) Login(ctx context.Context, creds Credentials) (Session, error) {
	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth == nil {
		return Session{}, errors.New("no authentication provider configured")
	}

	sess, err := auth.Authenticate(ctx, creds)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if err := s.Establish(ctx, sess); err != nil {
		return Session{}, err
	}
	s.logger.Info("signed in", "username", sess.User.Username)
	return s.Snapshot(), nil
}

// Establish stores a session obtained elsewhere, such as a login response
// received through the request pipeline.
func (s *State) Establish(ctx context.Context, sess Session) error {
	if sess.Token == "" || sess.User == nil {
		return ErrInvalidLogin
	}
	u := *sess.User
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, kv.KeyToken, sess.Token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	if err := s.store.Set(ctx, kv.KeyUser, string(data)); err != nil {
		// Storage must keep matching the session still held in memory.
		if s.token != "" {
			_ = s.store.Set(ctx, kv.KeyToken, s.token)
		} else {
			_ = s.store.Delete(ctx, kv.KeyToken)
		}
		return fmt.Errorf("persisting user: %w", err)
	}
	s.token, s.user = sess.Token, &u
	return nil
}

// Logout clears token and user together and removes them from storage.
// In-memory state is cleared even when storage fails.
func (s *State) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = "", nil
	return s.clearPersisted(ctx)
}

// UpdateProfile replaces the profile of the signed-in user.
func (s *State) UpdateProfile(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return ErrNotLoggedIn
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.store.Set(ctx, kv.KeyUser, string(data)); err != nil {
		return fmt.Errorf("persisting user: %w", err)
	}
	s.user = &u
	return nil
}

func (s *State) clearPersisted(ctx context.Context) error {
	if err := s.store.Delete(ctx, kv.KeyToken); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	if err := s.store.Delete(ctx, kv.KeyUser); err != nil {
		return fmt.Errorf("removing user: %w", err)
	}
	return nil
}

// Token returns the current bearer token, or "".
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the profile, or nil.
func (s *State) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *State) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Session{Token: s.token}
	if s.user != nil {
		u := *s.user
		out.User = &u
	}
	return out
}

func (s *State) IsLoggedIn() bool {
	return s.Token() != ""
}

func (s *State) Username() string {
	if u := s.User(); u != nil {
		return u.Username
	}
	return ""
}

func (s *State) Avatar() string {
	if u := s.User(); u != nil {
		return u.AvatarURL
	}
	return ""
}
