package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultPath is where the wizard writes the configuration.
const DefaultPath = ".studyguide.yml"

// detectContentDir looks for a directory that already holds guide content.
func detectContentDir() string {
	for _, dir := range []string{"docs", "content", "guide"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "docs"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .studyguide.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to studyguide! Let's configure your project.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. API endpoint.
	apiPrompt := promptui.Prompt{
		Label:   "API base URL",
		Default: cfg.API.BaseURL,
	}
	baseURL, err := apiPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	cfg.API.BaseURL = strings.TrimSpace(baseURL)

	// 2. Authentication provider.
	authPrompt := promptui.Select{
		Label: "How do users sign in",
		Items: []string{
			"api    — POST credentials to the API login endpoint",
			"oauth2 — password grant against an OAuth2 token endpoint",
		},
	}
	authIdx, _, err := authPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("auth provider: %w", err)
	}
	cfg.Auth.Provider = []AuthProvider{AuthProviderAPI, AuthProviderOAuth2}[authIdx]
	if cfg.Auth.Provider == AuthProviderOAuth2 {
		tokenPrompt := promptui.Prompt{Label: "OAuth2 token URL"}
		if cfg.Auth.OAuth2.TokenURL, err = tokenPrompt.Run(); err != nil {
			return nil, fmt.Errorf("oauth2 token url: %w", err)
		}
		clientPrompt := promptui.Prompt{Label: "OAuth2 client ID"}
		if cfg.Auth.OAuth2.ClientID, err = clientPrompt.Run(); err != nil {
			return nil, fmt.Errorf("oauth2 client id: %w", err)
		}
	}

	// 3. Storage backend.
	storagePrompt := promptui.Select{
		Label: "Where should preferences and the session token be stored",
		Items: []string{"sqlite", "redis", "memory"},
	}
	_, backend, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage backend: %w", err)
	}
	cfg.Storage.Backend = StorageBackend(backend)

	// 4. Languages.
	langPrompt := promptui.Prompt{
		Label:   "Supported languages (comma-separated, first is the default)",
		Default: strings.Join(cfg.UI.Languages, ","),
	}
	langs, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	if list := splitAndTrim(langs); len(list) > 0 {
		cfg.UI.Languages = list
		cfg.UI.DefaultLanguage = list[0]
	}

	// 5. Content directory.
	contentPrompt := promptui.Prompt{
		Label:   "Guide content directory",
		Default: detectContentDir(),
	}
	if cfg.Site.ContentDir, err = contentPrompt.Run(); err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
