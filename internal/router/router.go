// Package router maps guide paths to views and applies page titles before a
// navigation commits.
package router

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
)

// View identifies the page rendered for a route.
type View string

const (
	ViewHome       View = "home"
	ViewComponents View = "components"
	ViewExamples   View = "examples"
	ViewDocs       View = "docs"
	ViewLogin      View = "login"
	ViewNotFound   View = "not-found"
)

// Route is one entry of the route table.
type Route struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	View  View   `json:"view"`
	Title string `json:"title"`
}

// NotFoundPath is the pattern of the catch-all route.
const NotFoundPath = "/:pathMatch(.*)*"

// DefaultRoutes returns the guide's route table. Titles are "<page> - <site>".
func DefaultRoutes(siteTitle string) []Route {
	title := func(page string) string {
		if siteTitle == "" {
			return page
		}
		return page + " - " + siteTitle
	}
	return []Route{
		{Name: "Home", Path: "/", View: ViewHome, Title: title("Home")},
		{Name: "Components", Path: "/components", View: ViewComponents, Title: title("Components")},
		{Name: "Examples", Path: "/examples", View: ViewExamples, Title: title("Examples")},
		{Name: "Docs", Path: "/docs", View: ViewDocs, Title: title("Docs")},
		{Name: "Login", Path: "/login", View: ViewLogin, Title: title("Sign in")},
		{Name: "NotFound", Path: NotFoundPath, View: ViewNotFound, Title: title("Page not found")},
	}
}

// Transition describes a pending navigation. Hooks may change Title.
type Transition struct {
	To    Route
	From  Route
	Path  string
	Title string
}

// HistoryLimit bounds the paths kept by History.
const HistoryLimit = 50

// Hook runs before a navigation commits. Returning an error cancels it.
type Hook func(ctx context.Context, t *Transition) error

// Router holds the route table, the current route and the document title.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]Route
	table    []Route
	notFound Route
	hooks    []Hook

	current Route
	title   string
	history []string
}

// New builds a router from routes. The table must contain exactly one
// not-found route. The title hook is installed first.
func New(routes []Route) (*Router, error) {
	r := &Router{routes: make(map[string]Route, len(routes))}
	found := false
	for _, rt := range routes {
		if rt.View == ViewNotFound {
			if found {
				return nil, fmt.Errorf("duplicate not-found route %q", rt.Name)
			}
			r.notFound = rt
			found = true
			continue
		}
		p := clean(rt.Path)
		if _, dup := r.routes[p]; dup {
			return nil, fmt.Errorf("duplicate route for path %s", p)
		}
		rt.Path = p
		r.routes[p] = rt
	}
	if !found {
		return nil, fmt.Errorf("route table has no not-found route")
	}
	r.table = append(r.table, routes...)
	r.hooks = append(r.hooks, applyTitle)
	return r, nil
}

func applyTitle(_ context.Context, t *Transition) error {
	if t.To.Title != "" {
		t.Title = t.To.Title
	}
	return nil
}

func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Routes returns the route table.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.table))
	copy(out, r.table)
	return out
}

// Resolve returns the route for p, or the not-found route.
func (r *Router) Resolve(p string) Route {
	if rt, ok := r.routes[clean(p)]; ok {
		return rt
	}
	return r.notFound
}

// Lookup returns the route with the given view.
func (r *Router) Lookup(v View) (Route, bool) {
	for _, rt := range r.table {
		if rt.View == v {
			return rt, true
		}
	}
	return Route{}, false
}

// BeforeNavigate registers a hook run on every transition, after the ones
// already registered.
func (r *Router) BeforeNavigate(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Transition resolves p and runs the hooks without changing the current route.
func (r *Router) Transition(ctx context.Context, p string) (*Transition, error) {
	r.mu.RLock()
	hooks := make([]Hook, len(r.hooks))
	copy(hooks, r.hooks)
	from := r.current
	title := r.title
	r.mu.RUnlock()

	t := &Transition{To: r.Resolve(p), From: from, Path: clean(p), Title: title}
	for _, h := range hooks {
		if err := h(ctx, t); err != nil {
			return nil, fmt.Errorf("navigation to %s cancelled: %w", t.Path, err)
		}
	}
	return t, nil
}

// Navigate runs the hooks for p and commits the transition.
func (r *Router) Navigate(ctx context.Context, p string) (Route, error) {
	t, err := r.Transition(ctx, p)
	if err != nil {
		return Route{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = t.To
	r.title = t.Title
	r.history = append(r.history, t.Path)
	if n := len(r.history); n > HistoryLimit {
		r.history = append(r.history[:0], r.history[n-HistoryLimit:]...)
	}
	return t.To, nil
}

// Current returns the committed route.
func (r *Router) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Title returns the document title applied by the last navigation.
func (r *Router) Title() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.title
}

// History returns the last HistoryLimit committed paths, oldest first.
func (r *Router) History() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.history))
	copy(out, r.history)
	return out
}
