package server

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/studyguide/internal/notifications"
	"github.com/ziadkadry99/studyguide/internal/router"
	"github.com/ziadkadry99/studyguide/internal/session"
	"github.com/ziadkadry99/studyguide/internal/store"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

var viewTemplate = template.Must(template.New("view").Parse(viewHTML))

type viewData struct {
	Title            string
	Lang             string
	Dark             bool
	SidebarCollapsed bool
	Loading          bool
	Route            router.Route
	Nav              []router.Route
	Breadcrumbs      []uistate.Breadcrumb
	User             *session.User
	Guide            string
	LoginPath        string
	PrefsPath        string
	Languages        []string
	Error            string
	Notifications    []notifications.Notification
}

func (s *Server) registerViews(r chi.Router) {
	for _, rt := range s.deps.Router.Routes() {
		if rt.View == router.ViewNotFound {
			continue
		}
		r.Get(rt.Path, s.handleView)
		if rt.View == router.ViewLogin {
			r.Post(rt.Path, s.handleLoginForm)
		}
	}
	r.Post(PrefsPath, s.handlePrefs)
	r.NotFound(s.handleView)
}

// PrefsPath accepts the theme and language form posted by every view.
const PrefsPath = "/prefs"

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	route, err := s.deps.Router.Navigate(ctx, r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if _, err := s.deps.Store.Dispatch(ctx, store.ActionUpdateBreadcrumbs, s.breadcrumbs(route, r.URL.Path)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if route.View == router.ViewNotFound {
		status = http.StatusNotFound
	}
	s.renderView(w, status, route, "")
}

// handlePrefs applies the posted theme ("light", "dark" or "toggle") and
// language, then returns to next.
func (s *Server) handlePrefs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !sameOrigin(r) {
		http.Error(w, "cross-site request", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if lang := r.PostForm.Get("lang"); lang != "" {
		if _, err := s.deps.Store.Dispatch(ctx, store.ActionSetLanguage, lang); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	switch theme := r.PostForm.Get("theme"); theme {
	case "":
	case "toggle":
		if _, err := s.deps.Store.Dispatch(ctx, store.ActionToggleTheme, nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		if _, err := s.deps.Store.Dispatch(ctx, store.ActionSetTheme, theme); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	http.Redirect(w, r, localRedirect(r.PostForm.Get("next")), http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !sameOrigin(r) {
		http.Error(w, "cross-site request", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := session.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	login, _ := s.deps.Router.Lookup(router.ViewLogin)
	if creds.Username == "" {
		s.renderView(w, http.StatusBadRequest, login, "username is required")
		return
	}
	if _, err := s.deps.Store.Dispatch(ctx, store.ActionLogin, creds); err != nil {
		s.renderView(w, dispatchStatus(err), login, err.Error())
		return
	}

	http.Redirect(w, r, localRedirect(r.PostForm.Get("next")), http.StatusSeeOther)
}

// localRedirect returns next when it is a path on this site, and "/"
// otherwise. Browsers read a backslash as a slash, so "/\host" is offsite.
func localRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.ContainsRune(next, '\\') {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return next
}

// sameOrigin rejects browser requests made from another site. Requests
// without Origin or Sec-Fetch-Site headers, such as CLI clients, pass.
func sameOrigin(r *http.Request) bool {
	if site := r.Header.Get("Sec-Fetch-Site"); site == "cross-site" || site == "same-site" {
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// breadcrumbs returns Home followed by the current page.
func (s *Server) breadcrumbs(route router.Route, requested string) []uistate.Breadcrumb {
	home, ok := s.deps.Router.Lookup(router.ViewHome)
	if !ok {
		home = router.Route{Name: "Home", Path: "/"}
	}
	crumbs := []uistate.Breadcrumb{{Label: home.Name, Path: home.Path}}
	if route.View == router.ViewHome {
		return crumbs
	}
	p := route.Path
	if route.View == router.ViewNotFound {
		p = requested
	}
	return append(crumbs, uistate.Breadcrumb{Label: route.Name, Path: p})
}

func (s *Server) renderView(w http.ResponseWriter, status int, route router.Route, errMsg string) {
	ui := s.deps.Store.UI()
	sess := s.deps.Store.Session()

	data := viewData{
		Title:            s.deps.Router.Title(),
		Lang:             ui.Language(),
		Dark:             ui.IsDarkTheme(),
		SidebarCollapsed: ui.SidebarCollapsed(),
		Loading:          ui.Loading(),
		Route:            route,
		Breadcrumbs:      ui.Breadcrumbs(),
		User:             sess.User(),
		Error:            errMsg,
		PrefsPath:        PrefsPath,
		Languages:        ui.SupportedLanguages(),
	}
	if data.Title == "" || errMsg != "" {
		data.Title = route.Title
	}
	for _, rt := range s.deps.Router.Routes() {
		switch rt.View {
		case router.ViewNotFound:
		case router.ViewLogin:
			data.LoginPath = rt.Path
		default:
			data.Nav = append(data.Nav, rt)
		}
	}
	if s.cfg.SiteDir != "" {
		data.Guide = GuidePrefix + "/"
	}
	if s.deps.Notifications != nil {
		data.Notifications = s.deps.Notifications.Active()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", data.Lang)
	w.WriteHeader(status)
	if err := viewTemplate.Execute(w, data); err != nil {
		s.logger.Error("rendering view", "view", route.View, "error", err)
	}
}

const viewHTML = `<!DOCTYPE html>
<html lang="{{.Lang}}"{{if .Dark}} class="dark"{{end}}>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: -apple-system, "Segoe UI", "PingFang SC", sans-serif; }
html.dark body { background: #1b1b1f; color: #dfdfd6; }
header { display: flex; gap: 16px; align-items: center; padding: 12px 24px; border-bottom: 1px solid #e2e2e3; }
header a.active { font-weight: 600; }
.crumbs { padding: 8px 24px; font-size: 14px; }
.crumbs span + span::before { content: " / "; }
main { padding: 24px; }
.loading { position: fixed; top: 0; left: 0; right: 0; height: 3px; background: #409eff; }
.toast { margin: 4px 24px; padding: 8px 12px; border-radius: 4px; background: #f4f4f5; }
.toast.error { background: #fef0f0; color: #f56c6c; }
.toast.success { background: #f0f9eb; color: #67c23a; }
.toast.warning { background: #fdf6ec; color: #e6a23c; }
</style>
</head>
<body class="view-{{.Route.View}}{{if .SidebarCollapsed}} sidebar-collapsed{{end}}">
{{- if .Loading}}
<div class="loading" role="progressbar"></div>
{{- end}}
<header>
  {{- range .Nav}}
  <a href="{{.Path}}"{{if eq .Path $.Route.Path}} class="active"{{end}}>{{.Name}}</a>
  {{- end}}
  {{- if .Guide}}
  <a href="{{.Guide}}">Guide</a>
  {{- end}}
  <form class="prefs" method="post" action="{{.PrefsPath}}">
    <input type="hidden" name="next" value="{{.Route.Path}}">
    <select name="lang">
    {{- range .Languages}}
      <option value="{{.}}"{{if eq . $.Lang}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
    <button type="submit" name="theme" value="toggle">{{if .Dark}}Light{{else}}Dark{{end}} theme</button>
    <button type="submit">Apply</button>
  </form>
  <span class="user">
  {{- if .User}}
    {{.User.Username}}
    <form method="post" action="/api/session/logout" style="display:inline"><button type="submit">Sign out</button></form>
  {{- else if .LoginPath}}
    <a href="{{.LoginPath}}">Sign in</a>
  {{- end}}
  </span>
</header>
<nav class="crumbs">
  {{- range .Breadcrumbs}}
  <span><a href="{{.Path}}">{{.Label}}</a></span>
  {{- end}}
</nav>
{{- range .Notifications}}
<div class="toast {{.Level}}">{{.Message}}</div>
{{- end}}
<main>
{{- if eq .Route.View "login"}}
  <h1>Sign in</h1>
  {{- if .Error}}
  <p class="error">{{.Error}}</p>
  {{- end}}
  <form method="post" action="{{.Route.Path}}">
    <label>Username <input name="username" autocomplete="username"></label>
    <label>Password <input name="password" type="password" autocomplete="current-password"></label>
    <button type="submit">Sign in</button>
  </form>
{{- else if eq .Route.View "not-found"}}
  <h1>404</h1>
  <p>Page not found.</p>
{{- else}}
  <h1>{{.Route.Name}}</h1>
  <div id="view" data-view="{{.Route.View}}"></div>
{{- end}}
</main>
</body>
</html>
`
