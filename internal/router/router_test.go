package router_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/studyguide/internal/router"
)

const siteTitle = "Element Plus Study Guide"

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	r, err := router.New(router.DefaultRoutes(siteTitle))
	require.NoError(t, err)
	return r
}

func TestResolve(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		path string
		want router.View
	}{
		{"/", router.ViewHome},
		{"", router.ViewHome},
		{"/components", router.ViewComponents},
		{"/components/", router.ViewComponents},
		{"examples", router.ViewExamples},
		{"/docs?tab=api", router.ViewDocs},
		{"/login#top", router.ViewLogin},
		{"/nope", router.ViewNotFound},
		{"/docs/deep/page", router.ViewNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.path).View)
		})
	}
}

func TestNavigateAppliesTitle(t *testing.T) {
	r := newRouter(t)

	rt, err := r.Navigate(context.Background(), "/components")
	require.NoError(t, err)
	assert.Equal(t, router.ViewComponents, rt.View)
	assert.Equal(t, "Components - Element Plus Study Guide", r.Title())
	assert.Equal(t, router.ViewComponents, r.Current().View)
	assert.Equal(t, []string{"/components"}, r.History())

	_, err = r.Navigate(context.Background(), "/missing")
	require.NoError(t, err)
	assert.Equal(t, "Page not found - Element Plus Study Guide", r.Title())
}

func TestTitleIsSetBeforeCommit(t *testing.T) {
	r := newRouter(t)
	var seenTitle string
	var seenCurrent router.View
	r.BeforeNavigate(func(_ context.Context, tr *router.Transition) error {
		seenTitle = tr.Title
		seenCurrent = r.Current().View
		return nil
	})

	_, err := r.Navigate(context.Background(), "/docs")
	require.NoError(t, err)
	assert.Equal(t, "Docs - Element Plus Study Guide", seenTitle)
	assert.Empty(t, seenCurrent, "hook runs before the route is committed")
}

func TestHookCancelsNavigation(t *testing.T) {
	r := newRouter(t)
	blocked := errors.New("blocked")
	r.BeforeNavigate(func(_ context.Context, tr *router.Transition) error {
		if tr.To.View == router.ViewDocs {
			return blocked
		}
		return nil
	})

	_, err := r.Navigate(context.Background(), "/docs")
	assert.ErrorIs(t, err, blocked)
	assert.Empty(t, r.History())
}

func TestTransitionDoesNotCommit(t *testing.T) {
	r := newRouter(t)
	tr, err := r.Transition(context.Background(), "/examples")
	require.NoError(t, err)
	assert.Equal(t, "Examples - Element Plus Study Guide", tr.Title)
	assert.Empty(t, r.Title())
	assert.Empty(t, r.History())
}

func TestNewValidatesTable(t *testing.T) {
	_, err := router.New([]router.Route{{Name: "Home", Path: "/", View: router.ViewHome}})
	assert.Error(t, err, "missing not-found route")

	_, err = router.New([]router.Route{
		{Name: "A", Path: "/a", View: router.ViewHome},
		{Name: "B", Path: "/a/", View: router.ViewDocs},
		{Name: "NotFound", Path: router.NotFoundPath, View: router.ViewNotFound},
	})
	assert.Error(t, err, "duplicate path")
}

func TestLookup(t *testing.T) {
	r := newRouter(t)
	rt, ok := r.Lookup(router.ViewLogin)
	require.True(t, ok)
	assert.Equal(t, "/login", rt.Path)
}

func TestHistoryIsBounded(t *testing.T) {
	r := newRouter(t)
	ctx := context.Background()
	for i := 0; i < 5000; i++ {
		_, err := r.Navigate(ctx, fmt.Sprintf("/scan-%d", i))
		require.NoError(t, err)
	}

	h := r.History()
	require.Len(t, h, router.HistoryLimit)
	assert.Equal(t, fmt.Sprintf("/scan-%d", 5000-router.HistoryLimit), h[0])
	assert.Equal(t, "/scan-4999", h[len(h)-1])
}
