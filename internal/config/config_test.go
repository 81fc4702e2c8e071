package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.API.Timeout)
	}
	if cfg.Auth.Provider != AuthProviderAPI {
		t.Errorf("expected default auth provider %q, got %q", AuthProviderAPI, cfg.Auth.Provider)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Errorf("expected default backend %q, got %q", StorageSQLite, cfg.Storage.Backend)
	}
	if cfg.UI.DefaultTheme != "light" {
		t.Errorf("expected default theme light, got %q", cfg.UI.DefaultTheme)
	}
	if cfg.Auth.LoginView != "/login" {
		t.Errorf("expected login view /login, got %q", cfg.Auth.LoginView)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.studyguide.yml")

	original := DefaultConfig()
	original.API.BaseURL = "https://api.example.com/v1"
	original.API.Timeout = 5 * time.Second
	original.Storage.Backend = StorageRedis
	original.UI.Languages = []string{"en-US", "zh-CN", "ja-JP"}
	original.UI.DefaultLanguage = "en-US"
	original.Site.ContentDir = "guide"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.API.BaseURL != original.API.BaseURL {
		t.Errorf("base_url: got %q, want %q", loaded.API.BaseURL, original.API.BaseURL)
	}
	if loaded.API.Timeout != original.API.Timeout {
		t.Errorf("timeout: got %v, want %v", loaded.API.Timeout, original.API.Timeout)
	}
	if loaded.Storage.Backend != StorageRedis {
		t.Errorf("backend: got %q, want %q", loaded.Storage.Backend, StorageRedis)
	}
	if loaded.UI.DefaultLanguage != "en-US" {
		t.Errorf("default_language: got %q", loaded.UI.DefaultLanguage)
	}
	if len(loaded.UI.Languages) != 3 {
		t.Fatalf("languages length: got %d, want 3", len(loaded.UI.Languages))
	}
	for i, v := range loaded.UI.Languages {
		if v != original.UI.Languages[i] {
			t.Errorf("languages[%d]: got %q, want %q", i, v, original.UI.Languages[i])
		}
	}
	if loaded.Site.ContentDir != "guide" {
		t.Errorf("content_dir: got %q", loaded.Site.ContentDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.API.BaseURL != DefaultConfig().API.BaseURL {
		t.Errorf("expected default base url, got %q", cfg.API.BaseURL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("STUDYGUIDE_API__BASE_URL", "https://staging.example.com/api")
	t.Setenv("STUDYGUIDE_STORAGE__BACKEND", "memory")
	t.Setenv("STUDYGUIDE_API__TIMEOUT", "2s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.API.BaseURL != "https://staging.example.com/api" {
		t.Errorf("env override failed: got %q", loaded.API.BaseURL)
	}
	if loaded.Storage.Backend != StorageMemory {
		t.Errorf("env override failed: got %q", loaded.Storage.Backend)
	}
	if loaded.API.Timeout != 2*time.Second {
		t.Errorf("env override failed: got %v", loaded.API.Timeout)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"STUDYGUIDE_API__BASE_URL", "api.base_url"},
		{"STUDYGUIDE_STORAGE__REDIS_ADDR", "storage.redis_addr"},
		{"STUDYGUIDE_AUTH__OAUTH2__CLIENT_ID", "auth.oauth2.client_id"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"unknown auth provider", func(c *Config) { c.Auth.Provider = "saml" }},
		{"oauth2 without token url", func(c *Config) { c.Auth.Provider = AuthProviderOAuth2 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }},
		{"third theme", func(c *Config) { c.UI.DefaultTheme = "sepia" }},
		{"default language not listed", func(c *Config) { c.UI.DefaultLanguage = "fr-FR" }},
		{"no languages", func(c *Config) { c.UI.Languages = nil }},
		{"empty content dir", func(c *Config) { c.Site.ContentDir = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateOAuth2Complete(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Provider = AuthProviderOAuth2
	cfg.Auth.OAuth2.TokenURL = "https://auth.example.com/token"
	cfg.Auth.OAuth2.ClientID = "guide"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid oauth2 config, got %v", err)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" zh-CN , en-US ", []string{"zh-CN", "en-US"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
