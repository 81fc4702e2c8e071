package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/ziadkadry99/studyguide/internal/apiclient"
	"github.com/ziadkadry99/studyguide/internal/session"
)

// OAuth2Authenticator signs in with the resource-owner password grant and
// then loads the profile through the request pipeline with the new token.
type OAuth2Authenticator struct {
	conf        *oauth2.Config
	client      *apiclient.Client
	profilePath string
	httpClient  *http.Client
}

// OAuth2Options configures an OAuth2Authenticator.
type OAuth2Options struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	ProfilePath  string
	// HTTPClient is used for the token request. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// NewOAuth2Authenticator creates an OAuth2Authenticator.
func NewOAuth2Authenticator(client *apiclient.Client, opts OAuth2Options) (*OAuth2Authenticator, error) {
	if opts.TokenURL == "" || opts.ClientID == "" {
		return nil, errors.New("oauth2 token_url and client_id are required")
	}
	if opts.ProfilePath == "" {
		return nil, errors.New("oauth2 profile_path is required")
	}
	return &OAuth2Authenticator{
		conf: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Scopes:       opts.Scopes,
			Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL},
		},
		client:      client,
		profilePath: opts.ProfilePath,
		httpClient:  opts.HTTPClient,
	}, nil
}

func (a *OAuth2Authenticator) Authenticate(ctx context.Context, creds session.Credentials) (session.Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return session.Session{}, errors.New("username and password are required")
	}
	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	tok, err := a.conf.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return session.Session{}, fmt.Errorf("requesting token: %w", err)
	}

	resp, err := a.client.WithTokens(staticToken(tok.AccessToken)).Get(ctx, a.profilePath, nil)
	if err != nil {
		return session.Session{}, fmt.Errorf("loading profile: %w", err)
	}
	var user session.User
	if err := resp.Decode(&user); err != nil {
		return session.Session{}, fmt.Errorf("reading profile: %w", err)
	}
	if user.Username == "" {
		user.Username = creds.Username
	}
	return session.Session{Token: tok.AccessToken, User: &user}, nil
}

type staticToken string

func (t staticToken) Token() string { return string(t) }
