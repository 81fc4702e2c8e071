// Package store owns the process-wide session and UI state and exposes them
// through named actions and getters.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ziadkadry99/studyguide/internal/session"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

// Actions.
const (
	ActionLogin             = "user/login"
	ActionLogout            = "user/logout"
	ActionUpdateUserInfo    = "user/updateUserInfo"
	ActionSetTheme          = "app/setTheme"
	ActionToggleTheme       = "app/toggleTheme"
	ActionSetLanguage       = "app/setLanguage"
	ActionToggleSidebar     = "app/toggleSidebar"
	ActionSetLoading        = "app/setLoading"
	ActionUpdateBreadcrumbs = "app/updateBreadcrumbs"
)

// Getters.
const (
	GetToken            = "user/token"
	GetIsLoggedIn       = "user/isLoggedIn"
	GetUserInfo         = "user/userInfo"
	GetUsername         = "user/username"
	GetAvatar           = "user/avatar"
	GetTheme            = "app/theme"
	GetIsDarkTheme      = "app/isDarkTheme"
	GetLanguage         = "app/language"
	GetSidebarCollapsed = "app/sidebarCollapsed"
	GetLoading          = "app/loading"
	GetBreadcrumbs      = "app/breadcrumbs"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)

// State is a snapshot of both modules.
type State struct {
	User session.Session  `json:"user"`
	App  uistate.Snapshot `json:"app"`
}

// Store composes the session and UI modules.
type Store struct {
	session *session.State
	ui      *uistate.State
	logger  *slog.Logger

	actions map[string]func(ctx context.Context, payload any) (any, error)
	getters map[string]func() any
}

// New creates a Store over the given modules.
func New(sess *session.State, ui *uistate.State, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{session: sess, ui: ui, logger: logger}
	s.actions = map[string]func(context.Context, any) (any, error){
		ActionLogin:             s.login,
		ActionLogout:            s.logout,
		ActionUpdateUserInfo:    s.updateUserInfo,
		ActionSetTheme:          s.setTheme,
		ActionToggleTheme:       s.toggleTheme,
		ActionSetLanguage:       s.setLanguage,
		ActionToggleSidebar:     s.toggleSidebar,
		ActionSetLoading:        s.setLoading,
		ActionUpdateBreadcrumbs: s.updateBreadcrumbs,
	}
	s.getters = map[string]func() any{
		GetToken:            func() any { return sess.Token() },
		GetIsLoggedIn:       func() any { return sess.IsLoggedIn() },
		GetUserInfo:         func() any { return sess.User() },
		GetUsername:         func() any { return sess.Username() },
		GetAvatar:           func() any { return sess.Avatar() },
		GetTheme:            func() any { return ui.Theme() },
		GetIsDarkTheme:      func() any { return ui.IsDarkTheme() },
		GetLanguage:         func() any { return ui.Language() },
		GetSidebarCollapsed: func() any { return ui.SidebarCollapsed() },
		GetLoading:          func() any { return ui.Loading() },
		GetBreadcrumbs:      func() any { return ui.Breadcrumbs() },
	}
	return s
}

// Session returns the session module.
func (s *Store) Session() *session.State { return s.session }

// UI returns the UI module.
func (s *Store) UI() *uistate.State { return s.ui }

// Dispatch runs a named action. payload is either the typed value the
// action expects or its JSON encoding (json.RawMessage or []byte).
func (s *Store) Dispatch(ctx context.Context, action string, payload any) (any, error) {
	fn, ok := s.actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	result, err := fn(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	s.logger.Debug("dispatched", "action", action)
	return result, nil
}

// Get reads a named getter.
func (s *Store) Get(key string) (any, bool) {
	fn, ok := s.getters[key]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Actions lists the action names, sorted.
func (s *Store) Actions() []string { return sortedKeys(s.actions) }

// Getters lists the getter names, sorted.
func (s *Store) Getters() []string { return sortedKeys(s.getters) }

// Snapshot returns a copy of both modules.
func (s *Store) Snapshot() State {
	return State{User: s.session.Snapshot(), App: s.ui.Snapshot()}
}

// Token, BeginRequest, EndRequest and Logout let the request pipeline use
// the store as its token source, loading tracker and session terminator.

func (s *Store) Token() string { return s.session.Token() }

func (s *Store) BeginRequest() string { return s.ui.BeginRequest() }

func (s *Store) EndRequest(id string) { s.ui.EndRequest(id) }

func (s *Store) Logout(ctx context.Context) error {
	_, err := s.Dispatch(ctx, ActionLogout, nil)
	return err
}

func (s *Store) login(ctx context.Context, payload any) (any, error) {
	creds, err := decode[session.Credentials](payload)
	if err != nil {
		return nil, err
	}
	return s.session.Login(ctx, creds)
}

func (s *Store) logout(ctx context.Context, _ any) (any, error) {
	return nil, s.session.Logout(ctx)
}

func (s *Store) updateUserInfo(ctx context.Context, payload any) (any, error) {
	u, err := decode[session.User](payload)
	if err != nil {
		return nil, err
	}
	return nil, s.session.UpdateProfile(ctx, u)
}

func (s *Store) setTheme(ctx context.Context, payload any) (any, error) {
	if t, ok := payload.(uistate.Theme); ok {
		return nil, s.ui.SetTheme(ctx, t)
	}
	name, err := decode[string](payload)
	if err != nil {
		return nil, err
	}
	return nil, s.ui.SetTheme(ctx, uistate.Theme(name))
}

func (s *Store) toggleTheme(ctx context.Context, _ any) (any, error) {
	return s.ui.ToggleTheme(ctx)
}

func (s *Store) setLanguage(ctx context.Context, payload any) (any, error) {
	lang, err := decode[string](payload)
	if err != nil {
		return nil, err
	}
	return nil, s.ui.SetLanguage(ctx, lang)
}

func (s *Store) toggleSidebar(_ context.Context, _ any) (any, error) {
	return s.ui.ToggleSidebar(), nil
}

func (s *Store) setLoading(_ context.Context, payload any) (any, error) {
	loading, err := decode[bool](payload)
	if err != nil {
		return nil, err
	}
	s.ui.SetLoading(loading)
	return nil, nil
}

func (s *Store) updateBreadcrumbs(_ context.Context, payload any) (any, error) {
	crumbs, err := decode[[]uistate.Breadcrumb](payload)
	if err != nil {
		return nil, err
	}
	s.ui.SetBreadcrumbs(crumbs)
	return nil, nil
}

func decode[T any](payload any) (T, error) {
	var v T
	switch p := payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	case json.RawMessage:
		if err := json.Unmarshal(p, &v); err != nil {
			return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return v, nil
	case []byte:
		if err := json.Unmarshal(p, &v); err != nil {
			return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return v, nil
	}
	return v, fmt.Errorf("%w: got %T, want %T", ErrInvalidPayload, payload, v)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
