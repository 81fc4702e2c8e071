package config

import "time"

// DefaultExcludes are glob patterns skipped when collecting guide pages.
var DefaultExcludes = []string{
	"node_modules/**",
	".vitepress/**",
	"public/**",
	"**/_*.md",
	"**/drafts/**",
}

// DefaultLanguages are the locales the guide ships with.
var DefaultLanguages = []string{"zh-CN", "en-US"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Provider:    AuthProviderAPI,
			LoginPath:   "/login",
			ProfilePath: "/user/profile",
			LoginView:   "/login",
		},
		Storage: StorageConfig{
			Backend:     StorageSQLite,
			Path:        ".studyguide/state.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "studyguide:",
		},
		UI: UIConfig{
			DefaultTheme:    "light",
			DefaultLanguage: "zh-CN",
			Languages:       DefaultLanguages,
			NotificationTTL: 3 * time.Second,
		},
		Site: SiteConfig{
			ContentDir: "docs",
			OutputDir:  "site",
			ConfigFile: "site.yml",
			Include:    []string{"**/*.md"},
			Exclude:    DefaultExcludes,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
