// Package app wires the configured modules into one application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ziadkadry99/studyguide/internal/apiclient"
	"github.com/ziadkadry99/studyguide/internal/auth"
	"github.com/ziadkadry99/studyguide/internal/config"
	"github.com/ziadkadry99/studyguide/internal/content"
	"github.com/ziadkadry99/studyguide/internal/db"
	"github.com/ziadkadry99/studyguide/internal/kv"
	"github.com/ziadkadry99/studyguide/internal/metrics"
	"github.com/ziadkadry99/studyguide/internal/notifications"
	"github.com/ziadkadry99/studyguide/internal/progress"
	"github.com/ziadkadry99/studyguide/internal/router"
	"github.com/ziadkadry99/studyguide/internal/session"
	"github.com/ziadkadry99/studyguide/internal/site"
	"github.com/ziadkadry99/studyguide/internal/store"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

// DefaultTitle names the guide when no site config exists.
const DefaultTitle = "Study Guide"

// Options carries the pieces Build does not derive from the config.
type Options struct {
	Logger *slog.Logger
	// HTTPClient sends API and token requests. Nil builds one with the
	// configured API timeout.
	HTTPClient *http.Client
	// Notices receives every notification as a line of text. Nil disables
	// the terminal sink.
	Notices io.Writer
}

// App holds the wired modules.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB      *db.DB
	KV      kv.Store
	Session *session.State
	UI      *uistate.State
	Store   *store.Store
	Router  *router.Router
	Site    *site.Config

	Notifications *notifications.Dispatcher
	History       *notifications.Store
	Hub           *notifications.Hub

	Registry *prometheus.Registry
	Metrics  *metrics.Pipeline
	API      *apiclient.Client

	closers []func() error
}

// Build validates cfg and wires every module. Close releases the storage
// handles.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	var err error
	if a.Session, err = session.New(ctx, a.KV, logger); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	a.UI, err = uistate.New(ctx, a.KV, uistate.Options{
		DefaultTheme:    cfg.UI.DefaultTheme,
		DefaultLanguage: cfg.UI.DefaultLanguage,
		Languages:       cfg.UI.Languages,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("restoring ui state: %w", err)
	}
	a.Store = store.New(a.Session, a.UI, logger)

	if a.Site, err = a.loadSite(); err != nil {
		return nil, err
	}
	if a.Router, err = router.New(router.DefaultRoutes(a.Site.Title)); err != nil {
		return nil, fmt.Errorf("building routes: %w", err)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector())
	a.Metrics = metrics.New(a.Registry)

	a.History = notifications.NewStore(a.DB)
	notifyOpts := []notifications.Option{
		notifications.WithTTL(cfg.UI.NotificationTTL),
		notifications.WithStore(a.History),
		notifications.WithLogger(logger),
		notifications.WithMetrics(a.Metrics),
	}
	if opts.Notices != nil {
		notifyOpts = append(notifyOpts, notifications.WithSink(notifications.TerminalSink(opts.Notices)))
	}
	a.Notifications = notifications.NewDispatcher(notifyOpts...)
	a.Hub = notifications.NewHub(a.Notifications, logger)

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	a.API, err = apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: httpClient,
		Tokens:     a.Store,
		Loading:    a.Store,
		Session:    a.Store,
		Navigator:  a.Router,
		Notifier:   a.Notifications,
		LoginPath:  cfg.Auth.LoginView,
		Logger:     logger,
		Metrics:    a.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("building api client: %w", err)
	}

	authn, err := auth.New(cfg.Auth, a.API, httpClient)
	if err != nil {
		return nil, fmt.Errorf("building auth provider: %w", err)
	}
	a.Session.SetAuthenticator(authn)

	ok = true
	return a, nil
}

// openStorage opens the state database and the key-value backend. The
// database also keeps notification history, so it exists for every
// backend; only sqlite puts it on disk.
func (a *App) openStorage(ctx context.Context) error {
	sc := a.Config.Storage
	var err error
	if sc.Backend == config.StorageSQLite {
		a.DB, err = db.Open(sc.Path)
	} else {
		a.DB, err = db.OpenMemory()
	}
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)

	switch sc.Backend {
	case config.StorageSQLite:
		a.KV = kv.NewSQLite(a.DB)
	case config.StorageMemory:
		a.KV = kv.NewMemory()
	case config.StorageRedis:
		r := kv.NewRedis(sc.RedisAddr, "", sc.RedisDB, kv.WithPrefix(sc.RedisPrefix))
		a.closers = append(a.closers, r.Close)
		if err := r.Ping(ctx); err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", sc.RedisAddr, err)
		}
		a.KV = r
	default:
		return fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
	return nil
}

// loadSite reads the site config, falling back to a single-locale default
// when the file does not exist.
func (a *App) loadSite() (*site.Config, error) {
	cfg, err := site.LoadConfig(a.SiteConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return site.DefaultConfig(DefaultTitle), nil
	}
	return cfg, err
}

// SiteConfigPath is the site.yml location.
func (a *App) SiteConfigPath() string {
	p := a.Config.Site.ConfigFile
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.Config.Site.ContentDir, p)
}

// Content returns the page selection used by the generator and the MCP tools.
func (a *App) Content() content.Config {
	return content.Config{
		RootDir: a.Config.Site.ContentDir,
		Include: a.Config.Site.Include,
		Exclude: a.Config.Site.Exclude,
	}
}

// Generator builds a site generator. A non-nil override replaces the site
// config read from disk; the server uses it to move the base path.
func (a *App) Generator(reporter progress.Reporter, override *site.Config) (*site.Generator, error) {
	return site.NewGenerator(site.Options{
		ContentDir: a.Config.Site.ContentDir,
		OutputDir:  a.Config.Site.OutputDir,
		Include:    a.Config.Site.Include,
		Exclude:    a.Config.Site.Exclude,
		Config:     override,
		ConfigFile: a.Config.Site.ConfigFile,
		Reporter:   reporter,
		Logger:     a.Logger,
	})
}

// Close releases storage handles in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
