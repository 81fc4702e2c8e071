// Package auth implements the login providers behind session.Login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ziadkadry99/studyguide/internal/apiclient"
	"github.com/ziadkadry99/studyguide/internal/session"
)

// API is the subset of the request pipeline the providers use.
type API interface {
	Get(ctx context.Context, path string, params url.Values) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
}

// APIAuthenticator signs in by posting credentials to the application API.
// The response data must be {"token": "...", "user": {...}}.
type APIAuthenticator struct {
	api       API
	loginPath string
}

// NewAPIAuthenticator creates an APIAuthenticator posting to loginPath.
func NewAPIAuthenticator(api API, loginPath string) *APIAuthenticator {
	return &APIAuthenticator{api: api, loginPath: loginPath}
}

func (a *APIAuthenticator) Authenticate(ctx context.Context, creds session.Credentials) (session.Session, error) {
	if creds.Username == "" {
		return session.Session{}, errors.New("username is required")
	}
	resp, err := a.api.Post(ctx, a.loginPath, creds)
	if err != nil {
		return session.Session{}, err
	}
	var sess session.Session
	if err := resp.Decode(&sess); err != nil {
		return session.Session{}, fmt.Errorf("reading login response: %w", err)
	}
	if sess.Token == "" || sess.User == nil {
		return session.Session{}, session.ErrInvalidLogin
	}
	return sess, nil
}
