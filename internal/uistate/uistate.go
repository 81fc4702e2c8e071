// Package uistate holds the application chrome state: theme, language,
// sidebar, loading indicator and breadcrumbs.
package uistate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/ziadkadry99/studyguide/internal/kv"
)

// Theme is the colour scheme. Only Light and Dark exist.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

var (
	ErrInvalidTheme        = errors.New("invalid theme")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// Breadcrumb is one entry of the breadcrumb trail.
type Breadcrumb struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Snapshot is a copy of the UI state.
type Snapshot struct {
	Theme            Theme        `json:"theme"`
	Language         string       `json:"language"`
	SidebarCollapsed bool         `json:"sidebarCollapsed"`
	Loading          bool         `json:"loading"`
	Breadcrumbs      []Breadcrumb `json:"breadcrumbs"`
}

// Options configures defaults used when nothing is persisted yet.
type Options struct {
	DefaultTheme    string
	DefaultLanguage string
	Languages       []string
}

// State owns the UI state. Theme and language are persisted to the kv store
// before the in-memory value changes.
type State struct {
	mu          sync.RWMutex
	theme       Theme
	lang        language.Tag
	collapsed   bool
	manual      bool
	inflight    map[string]struct{}
	breadcrumbs []Breadcrumb

	supported []language.Tag
	fallback  language.Tag
	matcher   language.Matcher
	store     kv.Store
	logger    *slog.Logger
}

// New builds the UI state, reading theme and language from store. Persisted
// values that are no longer valid fall back to the defaults.
func New(ctx context.Context, store kv.Store, opts Options, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Languages) == 0 {
		return nil, errors.New("at least one language is required")
	}

	supported := make([]language.Tag, 0, len(opts.Languages))
	for _, l := range opts.Languages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parsing language %q: %w", l, err)
		}
		supported = append(supported, tag)
	}

	s := &State{
		inflight:  make(map[string]struct{}),
		supported: supported,
		store:     store,
		logger:    logger,
	}

	def, err := s.lookup(opts.DefaultLanguage)
	if err != nil {
		def = supported[0]
	}
	s.fallback = def
	// The matcher prefers its first tag when nothing matches.
	ordered := append([]language.Tag{def}, supported...)
	s.matcher = language.NewMatcher(ordered)

	defTheme, err := ParseTheme(opts.DefaultTheme)
	if err != nil {
		defTheme = Light
	}

	rawTheme, err := kv.GetOr(ctx, store, kv.KeyTheme, string(defTheme))
	if err != nil {
		return nil, fmt.Errorf("loading theme: %w", err)
	}
	if s.theme, err = ParseTheme(rawTheme); err != nil {
		logger.Warn("ignoring persisted theme", "theme", rawTheme)
		s.theme = defTheme
	}

	rawLang, err := kv.GetOr(ctx, store, kv.KeyLanguage, def.String())
	if err != nil {
		return nil, fmt.Errorf("loading language: %w", err)
	}
	if s.lang, err = s.lookup(rawLang); err != nil {
		logger.Warn("ignoring persisted language", "language", rawLang)
		s.lang = def
	}
	return s, nil
}

// lookup canonicalises l and returns the matching supported tag.
func (s *State) lookup(l string) (language.Tag, error) {
	tag, err := language.Parse(l)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, l)
	}
	for _, t := range s.supported {
		if t == tag {
			return t, nil
		}
	}
	return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, l)
}

// SetTheme persists and applies t.
func (s *State) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setThemeLocked(ctx, t)
}

func (s *State) setThemeLocked(ctx context.Context, t Theme) error {
	if err := s.store.Set(ctx, kv.KeyTheme, string(t)); err != nil {
		return fmt.Errorf("persisting theme: %w", err)
	}
	s.theme = t
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *State) ToggleTheme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Dark
	if s.theme == Dark {
		next = Light
	}
	if err := s.setThemeLocked(ctx, next); err != nil {
		return s.theme, err
	}
	return next, nil
}

// SetLanguage persists and applies lang. lang must be one of the supported
// languages; case is normalised ("zh-cn" is "zh-CN").
func (s *State) SetLanguage(ctx context.Context, lang string) error {
	tag, err := s.lookup(lang)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, kv.KeyLanguage, tag.String()); err != nil {
		return fmt.Errorf("persisting language: %w", err)
	}
	s.lang = tag
	return nil
}

// NegotiateLanguage returns the supported language that best matches an
// Accept-Language header. It does not change state.
func (s *State) NegotiateLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return s.Language()
	}
	_, idx, conf := s.matcher.Match(tags...)
	if conf == language.No {
		return s.Language()
	}
	if idx == 0 {
		return s.fallback.String()
	}
	return s.supported[idx-1].String()
}

// SupportedLanguages lists the configured languages.
func (s *State) SupportedLanguages() []string {
	out := make([]string, len(s.supported))
	for i, t := range s.supported {
		out[i] = t.String()
	}
	return out
}

func (s *State) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = !s.collapsed
	return s.collapsed
}

func (s *State) SetSidebarCollapsed(collapsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = collapsed
}

// SetLoading sets the manual loading flag. Requests tracked with
// BeginRequest keep Loading true independently of it.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual = loading
}

// BeginRequest marks a request in flight and returns its ticket.
func (s *State) BeginRequest() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id] = struct{}{}
	return id
}

// EndRequest releases a ticket. Unknown or already released tickets are ignored.
func (s *State) EndRequest(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// InFlight returns the number of outstanding requests.
func (s *State) InFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inflight)
}

// SetBreadcrumbs replaces the breadcrumb trail with a copy of crumbs.
func (s *State) SetBreadcrumbs(crumbs []Breadcrumb) {
	cp := make([]Breadcrumb, len(crumbs))
	copy(cp, crumbs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = cp
}

func (s *State) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *State) IsDarkTheme() bool {
	return s.Theme() == Dark
}

func (s *State) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang.String()
}

func (s *State) SidebarCollapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collapsed
}

// Loading reports whether the manual flag is set or any request is in flight.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manual || len(s.inflight) > 0
}

func (s *State) Breadcrumbs() []Breadcrumb {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Breadcrumb, len(s.breadcrumbs))
	copy(out, s.breadcrumbs)
	return out
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	crumbs := make([]Breadcrumb, len(s.breadcrumbs))
	copy(crumbs, s.breadcrumbs)
	return Snapshot{
		Theme:            s.theme,
		Language:         s.lang.String(),
		SidebarCollapsed: s.collapsed,
		Loading:          s.manual || len(s.inflight) > 0,
		Breadcrumbs:      crumbs,
	}
}
