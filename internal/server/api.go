package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/studyguide/internal/apiclient"
	"github.com/ziadkadry99/studyguide/internal/router"
	"github.com/ziadkadry99/studyguide/internal/session"
	"github.com/ziadkadry99/studyguide/internal/store"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

// stateResponse is the public view of the store. The token never leaves
// the process.
type stateResponse struct {
	LoggedIn bool             `json:"isLoggedIn"`
	User     *session.User    `json:"userInfo"`
	App      uistate.Snapshot `json:"app"`
	Route    router.Route     `json:"route"`
	Title    string           `json:"title"`
}

func (s *Server) registerAPI(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/getters/*", s.handleGetter)
		r.Post("/dispatch", s.handleDispatch)
		r.Get("/routes", s.handleRoutes)
		r.Post("/session/login", s.handleLogin)
		r.Post("/session/logout", s.handleLogout)
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Store.Snapshot()
	writeJSON(w, http.StatusOK, stateResponse{
		LoggedIn: snap.User.Token != "",
		User:     snap.User.User,
		App:      snap.App,
		Route:    s.deps.Router.Current(),
		Title:    s.deps.Router.Title(),
	})
}

func (s *Server) handleGetter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == store.GetToken {
		writeError(w, http.StatusForbidden, "the token getter is not exposed")
		return
	}
	v, ok := s.deps.Store.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown getter "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "value": v})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Router.Routes())
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string          `json:"action"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	var payload any
	if len(req.Payload) > 0 && string(req.Payload) != "null" {
		payload = req.Payload
	}
	result, err := s.deps.Store.Dispatch(r.Context(), req.Action, payload)
	if err != nil {
		writeError(w, dispatchStatus(err), err.Error())
		return
	}
	if sess, ok := result.(session.Session); ok {
		result = sess.User
	}
	writeJSON(w, http.StatusOK, map[string]any{"action": req.Action, "result": result})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(creds.Username) == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	result, err := s.deps.Store.Dispatch(r.Context(), store.ActionLogin, creds)
	if err != nil {
		writeError(w, dispatchStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userInfo": result.(session.Session).User})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Store.Dispatch(r.Context(), store.ActionLogout, nil); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dispatchStatus maps an action failure to an HTTP status.
func dispatchStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidPayload),
		errors.Is(err, uistate.ErrInvalidTheme),
		errors.Is(err, uistate.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotLoggedIn),
		errors.Is(err, session.ErrInvalidLogin):
		return http.StatusUnauthorized
	}
	switch apiclient.OutcomeOf(err) {
	case apiclient.OutcomeBusinessFailure:
		return http.StatusUnprocessableEntity
	case apiclient.OutcomeTransportFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
