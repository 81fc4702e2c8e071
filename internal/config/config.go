package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "STUDYGUIDE_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (STUDYGUIDE_*). Nested keys are separated
// by a double underscore: STUDYGUIDE_API__BASE_URL -> api.base_url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps STUDYGUIDE_STORAGE__REDIS_ADDR to storage.redis_addr.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validAuthProviders = map[AuthProvider]bool{
	AuthProviderAPI:    true,
	AuthProviderOAuth2: true,
}

var validBackends = map[StorageBackend]bool{
	StorageSQLite: true,
	StorageRedis:  true,
	StorageMemory: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if !validAuthProviders[c.Auth.Provider] {
		return fmt.Errorf("invalid auth.provider %q: must be one of api, oauth2", c.Auth.Provider)
	}
	if c.Auth.LoginPath == "" {
		return fmt.Errorf("auth.login_path is required")
	}
	if c.Auth.LoginView == "" {
		return fmt.Errorf("auth.login_view is required")
	}
	if c.Auth.Provider == AuthProviderOAuth2 {
		if c.Auth.OAuth2.TokenURL == "" || c.Auth.OAuth2.ClientID == "" {
			return fmt.Errorf("auth.oauth2.token_url and auth.oauth2.client_id are required for the oauth2 provider")
		}
		if c.Auth.ProfilePath == "" {
			return fmt.Errorf("auth.profile_path is required for the oauth2 provider")
		}
	}

	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("invalid storage.backend %q: must be one of sqlite, redis, memory", c.Storage.Backend)
	}
	if c.Storage.Backend == StorageSQLite && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite backend")
	}
	if c.Storage.Backend == StorageRedis && c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redis_addr is required for the redis backend")
	}

	if c.UI.DefaultTheme != "light" && c.UI.DefaultTheme != "dark" {
		return fmt.Errorf("invalid ui.default_theme %q: must be light or dark", c.UI.DefaultTheme)
	}
	if len(c.UI.Languages) == 0 {
		return fmt.Errorf("ui.languages must list at least one language")
	}
	found := false
	for _, l := range c.UI.Languages {
		if strings.EqualFold(l, c.UI.DefaultLanguage) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("ui.default_language %q is not listed in ui.languages", c.UI.DefaultLanguage)
	}
	if c.UI.NotificationTTL < 0 {
		return fmt.Errorf("ui.notification_ttl must be non-negative")
	}

	if c.Site.ContentDir == "" || c.Site.OutputDir == "" {
		return fmt.Errorf("site.content_dir and site.output_dir are required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	return nil
}
