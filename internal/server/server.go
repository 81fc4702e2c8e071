package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziadkadry99/studyguide/internal/notifications"
	"github.com/ziadkadry99/studyguide/internal/router"
	"github.com/ziadkadry99/studyguide/internal/site"
	"github.com/ziadkadry99/studyguide/internal/store"
)

// GuidePrefix is where the generated guide is mounted.
const GuidePrefix = "/guide"

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool   // allow all CORS origins (dev mode)
	SiteDir  string // generated guide; /guide is not mounted when empty
	// RequestTimeout bounds every request except the notification stream.
	RequestTimeout time.Duration
}

// Deps are the application modules the server exposes. History, Hub, Site
// and Gatherer may be nil.
type Deps struct {
	Store         *store.Store
	Router        *router.Router
	Notifications *notifications.Dispatcher
	History       *notifications.Store
	Hub           *notifications.Hub
	Site          *site.Config
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

// Server serves the guide's views, the generated site and the state API.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over the given modules.
func New(cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{cfg: cfg, deps: deps, logger: deps.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// The notification stream is long-lived, so it stays outside the timeout.
	if s.deps.Notifications != nil {
		notifications.RegisterRoutes(r, s.deps.Notifications, s.deps.History, s.deps.Hub)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		s.registerAPI(r)
		if s.cfg.SiteDir != "" {
			guide := GuideHandler(s.cfg.SiteDir, GuidePrefix, s.deps.Site, s.deps.Store.UI())
			r.Handle(GuidePrefix, guide)
			r.Handle(GuidePrefix+"/*", guide)
		}
		s.registerViews(r)
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("studyguide server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run starts the notification hub and the listener, and shuts both down
// when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.deps.Hub != nil {
		s.deps.Hub.Start(ctx)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
