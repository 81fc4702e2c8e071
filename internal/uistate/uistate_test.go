package uistate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/studyguide/internal/kv"
	"github.com/ziadkadry99/studyguide/internal/logging"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

var defaults = uistate.Options{
	DefaultTheme:    "light",
	DefaultLanguage: "zh-CN",
	Languages:       []string{"zh-CN", "en-US"},
}

func newState(t *testing.T, store kv.Store) *uistate.State {
	t.Helper()
	s, err := uistate.New(context.Background(), store, defaults, logging.Nop())
	require.NoError(t, err)
	return s
}

// failingStore rejects every write.
type failingStore struct{ kv.Store }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestDefaults(t *testing.T) {
	s := newState(t, kv.NewMemory())
	snap := s.Snapshot()
	assert.Equal(t, uistate.Light, snap.Theme)
	assert.Equal(t, "zh-CN", snap.Language)
	assert.False(t, snap.SidebarCollapsed)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Breadcrumbs)
}

func TestSetThemePersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, newState(t, store).SetTheme(ctx, uistate.Dark))

	restarted := newState(t, store)
	assert.Equal(t, uistate.Dark, restarted.Theme())
	assert.True(t, restarted.IsDarkTheme())
}

func TestSetThemeRejectsUnknown(t *testing.T) {
	s := newState(t, kv.NewMemory())
	err := s.SetTheme(context.Background(), uistate.Theme("sepia"))
	assert.ErrorIs(t, err, uistate.ErrInvalidTheme)
	assert.Equal(t, uistate.Light, s.Theme())
}

func TestSetThemeFailedWriteLeavesStateUnchanged(t *testing.T) {
	s := newState(t, failingStore{kv.NewMemory()})
	require.Error(t, s.SetTheme(context.Background(), uistate.Dark))
	assert.Equal(t, uistate.Light, s.Theme())
}

func TestToggleThemeTwiceIsIdentity(t *testing.T) {
	ctx := context.Background()
	s := newState(t, kv.NewMemory())

	first, err := s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, uistate.Dark, first)

	second, err := s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, uistate.Light, second)
}

func TestSetLanguage(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := newState(t, store)

	require.NoError(t, s.SetLanguage(ctx, "en-us"))
	assert.Equal(t, "en-US", s.Language())

	persisted, err := store.Get(ctx, kv.KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "en-US", persisted)

	err = s.SetLanguage(ctx, "fr-FR")
	assert.ErrorIs(t, err, uistate.ErrUnsupportedLanguage)
	assert.Equal(t, "en-US", s.Language())

	assert.Equal(t, "en-US", newState(t, store).Language())
}

func TestInvalidPersistedValuesFallBack(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.KeyTheme, "neon"))
	require.NoError(t, store.Set(ctx, kv.KeyLanguage, "xx-invalid-tag-!!"))

	s := newState(t, store)
	assert.Equal(t, uistate.Light, s.Theme())
	assert.Equal(t, "zh-CN", s.Language())
}

func TestNegotiateLanguage(t *testing.T) {
	s := newState(t, kv.NewMemory())

	assert.Equal(t, "en-US", s.NegotiateLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "zh-CN", s.NegotiateLanguage("zh-CN,zh;q=0.8"))
	assert.Equal(t, "zh-CN", s.NegotiateLanguage(""))
}

func TestSidebar(t *testing.T) {
	s := newState(t, kv.NewMemory())
	assert.True(t, s.ToggleSidebar())
	assert.False(t, s.ToggleSidebar())
	s.SetSidebarCollapsed(true)
	assert.True(t, s.SidebarCollapsed())
}

func TestLoadingTracksOverlappingRequests(t *testing.T) {
	s := newState(t, kv.NewMemory())

	a := s.BeginRequest()
	b := s.BeginRequest()
	assert.NotEqual(t, a, b)
	assert.True(t, s.Loading())

	s.EndRequest(a)
	assert.True(t, s.Loading(), "sibling request still in flight")

	s.EndRequest(b)
	assert.False(t, s.Loading())

	s.EndRequest(b)
	assert.Equal(t, 0, s.InFlight())
}

func TestManualLoadingFlag(t *testing.T) {
	s := newState(t, kv.NewMemory())
	s.SetLoading(true)
	id := s.BeginRequest()
	s.EndRequest(id)
	assert.True(t, s.Loading())
	s.SetLoading(false)
	assert.False(t, s.Loading())
}

func TestBreadcrumbsAreCopied(t *testing.T) {
	s := newState(t, kv.NewMemory())
	crumbs := []uistate.Breadcrumb{{Label: "Home", Path: "/"}, {Label: "Docs", Path: "/docs"}}
	s.SetBreadcrumbs(crumbs)
	crumbs[0].Label = "changed"

	got := s.Breadcrumbs()
	assert.Equal(t, "Home", got[0].Label)
	got[1].Label = "changed"
	assert.Equal(t, "Docs", s.Breadcrumbs()[1].Label)
}

func TestNewRequiresLanguages(t *testing.T) {
	_, err := uistate.New(context.Background(), kv.NewMemory(), uistate.Options{}, logging.Nop())
	assert.Error(t, err)
}
