package config

import "time"

// AuthProvider selects how the session logs in.
type AuthProvider string

const (
	AuthProviderAPI    AuthProvider = "api"
	AuthProviderOAuth2 AuthProvider = "oauth2"
)

// StorageBackend selects the durable key-value store for UI and session state.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

// Config is the top-level studyguide configuration, corresponding to .studyguide.yml.
type Config struct {
	API     APIConfig     `yaml:"api" koanf:"api"`
	Auth    AuthConfig    `yaml:"auth" koanf:"auth"`
	Storage StorageConfig `yaml:"storage" koanf:"storage"`
	UI      UIConfig      `yaml:"ui" koanf:"ui"`
	Site    SiteConfig    `yaml:"site" koanf:"site"`
	Server  ServerConfig  `yaml:"server" koanf:"server"`
	Log     LogConfig     `yaml:"log" koanf:"log"`
}

// APIConfig holds the outbound request pipeline settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" koanf:"base_url"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// AuthConfig holds login settings.
type AuthConfig struct {
	Provider    AuthProvider `yaml:"provider" koanf:"provider"`
	LoginPath   string       `yaml:"login_path" koanf:"login_path"`
	ProfilePath string       `yaml:"profile_path" koanf:"profile_path"`
	// LoginView is where the navigator is sent when the API answers 401.
	LoginView string       `yaml:"login_view" koanf:"login_view"`
	OAuth2    OAuth2Config `yaml:"oauth2" koanf:"oauth2"`
}

// OAuth2Config configures the resource-owner password grant.
type OAuth2Config struct {
	TokenURL     string   `yaml:"token_url" koanf:"token_url"`
	ClientID     string   `yaml:"client_id" koanf:"client_id"`
	ClientSecret string   `yaml:"client_secret" koanf:"client_secret"`
	Scopes       []string `yaml:"scopes" koanf:"scopes"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend     StorageBackend `yaml:"backend" koanf:"backend"`
	Path        string         `yaml:"path" koanf:"path"`
	RedisAddr   string         `yaml:"redis_addr" koanf:"redis_addr"`
	RedisDB     int            `yaml:"redis_db" koanf:"redis_db"`
	RedisPrefix string         `yaml:"redis_prefix" koanf:"redis_prefix"`
}

// UIConfig holds UI state defaults.
type UIConfig struct {
	DefaultTheme    string        `yaml:"default_theme" koanf:"default_theme"`
	DefaultLanguage string        `yaml:"default_language" koanf:"default_language"`
	Languages       []string      `yaml:"languages" koanf:"languages"`
	NotificationTTL time.Duration `yaml:"notification_ttl" koanf:"notification_ttl"`
}

// SiteConfig points at the guide content and the generated site.
type SiteConfig struct {
	ContentDir string   `yaml:"content_dir" koanf:"content_dir"`
	OutputDir  string   `yaml:"output_dir" koanf:"output_dir"`
	ConfigFile string   `yaml:"config_file" koanf:"config_file"`
	Include    []string `yaml:"include" koanf:"include"`
	Exclude    []string `yaml:"exclude" koanf:"exclude"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
