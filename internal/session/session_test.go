package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/studyguide/internal/kv"
	"github.com/ziadkadry99/studyguide/internal/logging"
	"github.com/ziadkadry99/studyguide/internal/session"
)

type stubAuth struct {
	sess session.Session
	err  error
	got  session.Credentials
}

func (a *stubAuth) Authenticate(_ context.Context, creds session.Credentials) (session.Session, error) {
	a.got = creds
	return a.sess, a.err
}

func newState(t *testing.T, store kv.Store) *session.State {
	t.Helper()
	s, err := session.New(context.Background(), store, logging.Nop())
	require.NoError(t, err)
	return s
}

func TestLoginSetsTokenAndUserTogether(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := newState(t, store)
	auth := &stubAuth{sess: session.Session{Token: "T", User: &session.User{Username: "alice"}}}
	s.SetAuthenticator(auth)

	got, err := s.Login(ctx, session.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "alice", auth.got.Username)
	assert.Equal(t, "T", got.Token)
	require.NotNil(t, got.User)
	assert.Equal(t, "alice", got.User.Username)
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, "alice", s.Username())

	token, err := store.Get(ctx, kv.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "T", token)
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	s := newState(t, kv.NewMemory())
	s.SetAuthenticator(&stubAuth{err: errors.New("bad password")})

	_, err := s.Login(context.Background(), session.Credentials{Username: "alice"})
	require.Error(t, err)
	assert.False(t, s.IsLoggedIn())
	assert.Nil(t, s.User())
}

func TestLoginRejectsIncompletePair(t *testing.T) {
	s := newState(t, kv.NewMemory())
	s.SetAuthenticator(&stubAuth{sess: session.Session{Token: "T"}})

	_, err := s.Login(context.Background(), session.Credentials{Username: "alice"})
	assert.ErrorIs(t, err, session.ErrInvalidLogin)
	assert.Empty(t, s.Token())
}

func TestLoginWithoutProvider(t *testing.T) {
	s := newState(t, kv.NewMemory())
	_, err := s.Login(context.Background(), session.Credentials{Username: "alice"})
	assert.Error(t, err)
}

func TestLogoutClearsBothAndStorage(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := newState(t, store)
	require.NoError(t, s.Establish(ctx, session.Session{Token: "T", User: &session.User{Username: "alice"}}))

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, session.Session{}, s.Snapshot())

	_, err := store.Get(ctx, kv.KeyToken)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = store.Get(ctx, kv.KeyUser)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	first := newState(t, store)
	require.NoError(t, first.Establish(ctx, session.Session{
		Token: "T",
		User:  &session.User{ID: 7, Username: "alice", AvatarURL: "https://example.com/a.png"},
	}))

	second := newState(t, store)
	assert.Equal(t, "T", second.Token())
	assert.Equal(t, "https://example.com/a.png", second.Avatar())
	assert.Equal(t, int64(7), second.User().ID)
}

func TestHalfPersistedSessionIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.KeyToken, "orphan"))

	s := newState(t, store)
	assert.False(t, s.IsLoggedIn())
	assert.Nil(t, s.User())

	_, err := store.Get(ctx, kv.KeyToken)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	s := newState(t, kv.NewMemory())

	err := s.UpdateProfile(ctx, session.User{Username: "bob"})
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)

	require.NoError(t, s.Establish(ctx, session.Session{Token: "T", User: &session.User{Username: "alice"}}))
	require.NoError(t, s.UpdateProfile(ctx, session.User{Username: "alice", Email: "alice@example.com"}))
	assert.Equal(t, "alice@example.com", s.User().Email)
}

func TestUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newState(t, kv.NewMemory())
	require.NoError(t, s.Establish(ctx, session.Session{Token: "T", User: &session.User{Username: "alice"}}))

	u := s.User()
	u.Username = "mallory"
	assert.Equal(t, "alice", s.Username())
}

// failingUserStore rejects writes of the user key once armed.
type failingUserStore struct {
	*kv.Memory
	armed bool
}

func (f *failingUserStore) Set(ctx context.Context, key, value string) error {
	if f.armed && key == kv.KeyUser {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func TestFailedUserWriteKeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	store := &failingUserStore{Memory: kv.NewMemory()}
	s := newState(t, store)
	require.NoError(t, s.Establish(ctx, session.Session{Token: "old", User: &session.User{Username: "alice"}}))

	store.armed = true
	err := s.Establish(ctx, session.Session{Token: "new", User: &session.User{Username: "bob"}})
	require.Error(t, err)

	assert.Equal(t, "old", s.Token())
	assert.Equal(t, "alice", s.Username())
	token, err := store.Get(ctx, kv.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "old", token)

	restarted := newState(t, store)
	assert.Equal(t, "old", restarted.Token())
	assert.Equal(t, "alice", restarted.Username())
}

func TestFailedUserWriteWithoutSessionClearsToken(t *testing.T) {
	ctx := context.Background()
	store := &failingUserStore{Memory: kv.NewMemory(), armed: true}
	s := newState(t, store)

	require.Error(t, s.Establish(ctx, session.Session{Token: "T", User: &session.User{Username: "alice"}}))
	assert.False(t, s.IsLoggedIn())
	_, err := store.Get(ctx, kv.KeyToken)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
