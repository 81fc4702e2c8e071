package auth

import (
	"fmt"
	"net/http"

	"github.com/ziadkadry99/studyguide/internal/apiclient"
	"github.com/ziadkadry99/studyguide/internal/config"
	"github.com/ziadkadry99/studyguide/internal/session"
)

// New returns the provider selected by cfg.Provider.
func New(cfg config.AuthConfig, client *apiclient.Client, httpClient *http.Client) (session.Authenticator, error) {
	switch cfg.Provider {
	case config.AuthProviderAPI, "":
		return NewAPIAuthenticator(client, cfg.LoginPath), nil
	case config.AuthProviderOAuth2:
		a, err := NewOAuth2Authenticator(client, OAuth2Options{
			TokenURL:     cfg.OAuth2.TokenURL,
			ClientID:     cfg.OAuth2.ClientID,
			ClientSecret: cfg.OAuth2.ClientSecret,
			Scopes:       cfg.OAuth2.Scopes,
			ProfilePath:  cfg.ProfilePath,
			HTTPClient:   httpClient,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}
