package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/studyguide/internal/kv"
	"github.com/ziadkadry99/studyguide/internal/logging"
	"github.com/ziadkadry99/studyguide/internal/metrics"
	"github.com/ziadkadry99/studyguide/internal/notifications"
	"github.com/ziadkadry99/studyguide/internal/router"
	"github.com/ziadkadry99/studyguide/internal/session"
	"github.com/ziadkadry99/studyguide/internal/site"
	"github.com/ziadkadry99/studyguide/internal/store"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

type stubAuth struct {
	err error
}

func (a *stubAuth) Authenticate(_ context.Context, creds session.Credentials) (session.Session, error) {
	if a.err != nil {
		return session.Session{}, a.err
	}
	return session.Session{Token: "secret-token", User: &session.User{Username: creds.Username}}, nil
}

type fixture struct {
	srv    *Server
	store  *store.Store
	router *router.Router
	notes  *notifications.Dispatcher
}

func newFixture(t *testing.T, cfg Config, siteCfg *site.Config) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := kv.NewMemory()

	sess, err := session.New(ctx, mem, logging.Nop())
	require.NoError(t, err)
	ui, err := uistate.New(ctx, mem, uistate.Options{
		DefaultLanguage: "en-US",
		Languages:       []string{"en-US", "zh-CN"},
	}, logging.Nop())
	require.NoError(t, err)
	st := store.New(sess, ui, logging.Nop())

	rt, err := router.New(router.DefaultRoutes("Study Guide"))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	notes := notifications.NewDispatcher(notifications.WithMetrics(metrics.New(reg)))

	srv := New(cfg, Deps{
		Store:         st,
		Router:        rt,
		Notifications: notes,
		Site:          siteCfg,
		Gatherer:      reg,
		Logger:        logging.Nop(),
	})
	return &fixture{srv: srv, store: st, router: rt, notes: notes}
}

func (f *fixture) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestCORSHeaders(t *testing.T) {
	f := newFixture(t, Config{AllowAll: true}, nil)

	w := f.do(t, http.MethodOptions, "/healthz", "",
		"Origin", "http://example.com",
		"Access-Control-Request-Method", "GET")
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStateNeverExposesToken(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.store.Session().SetAuthenticator(&stubAuth{})
	_, err := f.store.Dispatch(context.Background(), store.ActionLogin, session.Credentials{Username: "alice"})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-token")

	body := decodeBody(t, w)
	assert.Equal(t, true, body["isLoggedIn"])
	assert.Equal(t, "alice", body["userInfo"].(map[string]any)["username"])
	assert.Equal(t, "light", body["app"].(map[string]any)["theme"])
}

func TestGetters(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/api/getters/app/theme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", decodeBody(t, w)["value"])

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/getters/user/token", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/getters/app/missing", "").Code)
}

func TestDispatch(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"toggle theme", `{"action":"app/toggleTheme"}`, http.StatusOK},
		{"set language", `{"action":"app/setLanguage","payload":"zh-cn"}`, http.StatusOK},
		{"unsupported language", `{"action":"app/setLanguage","payload":"fr-FR"}`, http.StatusBadRequest},
		{"invalid theme", `{"action":"app/setTheme","payload":"blue"}`, http.StatusBadRequest},
		{"wrong payload type", `{"action":"app/setLoading","payload":"yes"}`, http.StatusBadRequest},
		{"unknown action", `{"action":"app/launch"}`, http.StatusNotFound},
		{"missing action", `{}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
		{"profile without session", `{"action":"user/updateUserInfo","payload":{"username":"bob"}}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/dispatch", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	assert.Equal(t, uistate.Dark, f.store.UI().Theme())
	assert.Equal(t, "zh-CN", f.store.UI().Language())
}

func TestDispatchLoginRedactsToken(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.store.Session().SetAuthenticator(&stubAuth{})

	w := f.do(t, http.MethodPost, "/api/dispatch", `{"action":"user/login","payload":{"username":"alice","password":"pw"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-token")
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestSessionLoginLogout(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodPost, "/api/session/login", `{"username":"alice"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code, "no provider configured")

	f.store.Session().SetAuthenticator(&stubAuth{})
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/session/login", `{"username":" "}`).Code)

	w = f.do(t, http.MethodPost, "/api/session/login", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeBody(t, w)["userInfo"].(map[string]any)["username"])
	assert.True(t, f.store.Session().IsLoggedIn())

	w = f.do(t, http.MethodPost, "/api/session/logout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, f.store.Session().IsLoggedIn())
	assert.Nil(t, f.store.Session().User())
}

func TestSessionLoginRejected(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.store.Session().SetAuthenticator(&stubAuth{err: session.ErrInvalidLogin})

	w := f.do(t, http.MethodPost, "/api/session/login", `{"username":"alice"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, f.store.Session().IsLoggedIn())
}

func TestRoutes(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/api/routes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var routes []router.Route
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	assert.Len(t, routes, len(router.DefaultRoutes("")))
}

func TestViewSetsTitleAndBreadcrumbs(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/components", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Components - Study Guide</title>")
	assert.Equal(t, "Components - Study Guide", f.router.Title())
	assert.Equal(t, []uistate.Breadcrumb{
		{Label: "Home", Path: "/"},
		{Label: "Components", Path: "/components"},
	}, f.store.UI().Breadcrumbs())

	w = f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.store.UI().Breadcrumbs(), 1)
}

func TestViewQueryDoesNotChangePreferences(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/docs?lang=zh-CN&theme=dark", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<html lang="en-US">`)
	assert.Equal(t, "en-US", f.store.UI().Language())
	assert.False(t, f.store.UI().IsDarkTheme())
}

func postForm(t *testing.T, f *fixture, target string, form url.Values, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(w, req)
	return w
}

func TestPrefsForm(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := postForm(t, f, PrefsPath, url.Values{"lang": {"zh-CN"}, "theme": {"dark"}, "next": {"/docs"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/docs", w.Header().Get("Location"))
	assert.Equal(t, "zh-CN", f.store.UI().Language())
	assert.True(t, f.store.UI().IsDarkTheme())

	w = postForm(t, f, PrefsPath, url.Values{"theme": {"toggle"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.False(t, f.store.UI().IsDarkTheme())

	assert.Equal(t, http.StatusBadRequest, postForm(t, f, PrefsPath, url.Values{"lang": {"xx"}}).Code)

	body := f.do(t, http.MethodGet, "/docs", "").Body.String()
	assert.Contains(t, body, `<form class="prefs" method="post" action="/prefs">`)
	assert.Contains(t, body, `<option value="zh-CN" selected>`)
}

func TestPrefsFormRejectsCrossSite(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"fetch metadata", []string{"Sec-Fetch-Site", "cross-site"}},
		{"foreign origin", []string{"Origin", "http://evil.example"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{}, nil)
			w := postForm(t, f, PrefsPath, url.Values{"theme": {"dark"}}, tt.header...)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.False(t, f.store.UI().IsDarkTheme())
		})
	}

	f := newFixture(t, Config{}, nil)
	w := postForm(t, f, PrefsPath, url.Values{"theme": {"dark"}}, "Origin", "http://example.com", "Sec-Fetch-Site", "same-origin")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, f.store.UI().IsDarkTheme())
}

func TestViewNotFound(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/no/such/page", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Page not found - Study Guide</title>")
	assert.Equal(t, router.ViewNotFound, f.router.Current().View)
}

func TestViewNavigationCancelled(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.router.BeforeNavigate(func(_ context.Context, tr *router.Transition) error {
		if tr.To.View == router.ViewExamples {
			return errors.New("examples are locked")
		}
		return nil
	})

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/examples", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/docs", "").Code)
}

func TestLoginForm(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.store.Session().SetAuthenticator(&stubAuth{})

	form := url.Values{"username": {"alice"}, "password": {"pw"}, "next": {"/docs"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/docs", w.Header().Get("Location"))
	assert.Equal(t, "alice", f.store.Session().Username())

	w = f.do(t, http.MethodGet, "/", "")
	assert.Contains(t, w.Body.String(), "alice")
	assert.Contains(t, w.Body.String(), "Sign out")
}

func TestLoginFormOffsiteRedirect(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"//evil.example", "/"},
		{`/\evil.example`, "/"},
		{`/docs\..\x`, "/"},
		{"https://evil.example/", "/"},
		{"javascript:alert(1)", "/"},
		{"docs", "/"},
		{"", "/"},
		{"/docs?tab=api", "/docs?tab=api"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			f := newFixture(t, Config{}, nil)
			f.store.Session().SetAuthenticator(&stubAuth{})

			w := postForm(t, f, "/login", url.Values{"username": {"alice"}, "next": {tt.next}})
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestLoginFormRejectsCrossSite(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.store.Session().SetAuthenticator(&stubAuth{})

	w := postForm(t, f, "/login", url.Values{"username": {"alice"}}, "Origin", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, f.store.Session().IsLoggedIn())
}

func TestNotificationsMounted(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.notes.Notify(context.Background(), notifications.LevelError, "test", "Network error")

	w := f.do(t, http.MethodGet, "/api/notifications/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Network error")

	w = f.do(t, http.MethodGet, "/", "")
	assert.Contains(t, w.Body.String(), `<div class="toast error">Network error</div>`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.notes.Notify(context.Background(), notifications.LevelWarning, "test", "careful")

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "studyguide_api_requests_in_flight")
	assert.Contains(t, w.Body.String(), `studyguide_notifications_total{level="warning"} 1`)
}

func guideDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "guide"))
	require.NoError(t, err)
	return dir
}

func generateGuide(t *testing.T) (string, *site.Config) {
	t.Helper()
	cfg, err := site.LoadConfig(filepath.Join(guideDir(t), "site.yml"))
	require.NoError(t, err)
	cfg.Base = GuidePrefix + "/"

	out := t.TempDir()
	gen, err := site.NewGenerator(site.Options{
		ContentDir: guideDir(t),
		OutputDir:  out,
		Config:     cfg,
		Logger:     logging.Nop(),
	})
	require.NoError(t, err)
	_, err = gen.Generate(context.Background())
	require.NoError(t, err)
	return out, cfg
}

func TestGuideServing(t *testing.T) {
	dir, cfg := generateGuide(t)
	f := newFixture(t, Config{SiteDir: dir}, cfg)

	w := f.do(t, http.MethodGet, "/guide/basic-components/button", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Buttons trigger an operation.")

	w = f.do(t, http.MethodGet, "/guide/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Element Plus Study Guide")

	w = f.do(t, http.MethodGet, "/guide", "")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/guide/", w.Header().Get("Location"))

	w = f.do(t, http.MethodGet, "/guide/search-index.json", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/guide/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404")

	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodPost, "/guide/", "").Code)
}

func TestGuideLocaleRedirect(t *testing.T) {
	dir, cfg := generateGuide(t)
	f := newFixture(t, Config{SiteDir: dir}, cfg)

	w := f.do(t, http.MethodGet, "/guide/", "", "Accept-Language", "zh-CN,zh;q=0.9")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/guide/zh/", w.Header().Get("Location"))

	w = f.do(t, http.MethodGet, "/guide/zh/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Element Plus 学习指南")

	// Without a header the stored language decides.
	_, err := f.store.Dispatch(context.Background(), store.ActionSetLanguage, "zh-CN")
	require.NoError(t, err)
	w = f.do(t, http.MethodGet, "/guide/", "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestGuideNotMountedWithoutSite(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	w := f.do(t, http.MethodGet, "/guide/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}
