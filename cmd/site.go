package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/kv"
	"github.com/ziadkadry99/studyguide/internal/progress"
	"github.com/ziadkadry99/studyguide/internal/server"
	"github.com/ziadkadry99/studyguide/internal/site"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Generate the static study guide website",
	Long: `Renders every markdown page of the guide into a static, multi-locale HTML
site with navigation, sidebars, prev/next links and a search index.`,
	RunE: runSite,
}

func init() {
	siteCmd.Flags().Bool("serve", false, "start a local HTTP server after generating")
	siteCmd.Flags().Bool("watch", false, "regenerate when content changes")
	siteCmd.Flags().Int("port", 8080, "port for the local dev server")
	siteCmd.Flags().String("output", "", "override output directory (defaults to site.output_dir)")
	rootCmd.AddCommand(siteCmd)
}

func runSite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Site.OutputDir = out
	}

	gen, err := site.NewGenerator(site.Options{
		ContentDir: cfg.Site.ContentDir,
		OutputDir:  cfg.Site.OutputDir,
		Include:    cfg.Site.Include,
		Exclude:    cfg.Site.Exclude,
		ConfigFile: cfg.Site.ConfigFile,
		Reporter:   progress.NewReporter(cmd.ErrOrStderr()),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generating site: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Static site generated: %s (%d pages in %s)\n",
		gen.OutputDir(), res.Pages, res.Duration.Round(time.Millisecond))

	serve, _ := cmd.Flags().GetBool("serve")
	watch, _ := cmd.Flags().GetBool("watch")

	if watch {
		onBuild := func(res site.Result, err error) {
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %d pages\n", res.Pages)
			}
		}
		if !serve {
			fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes, press Ctrl+C to stop")
			return gen.Watch(ctx, site.DefaultDebounce, onBuild)
		}
		go func() {
			if err := gen.Watch(ctx, site.DefaultDebounce, onBuild); err != nil {
				logger.Error("watching content", "error", err)
			}
		}()
	}

	if !serve {
		return nil
	}

	// A throwaway UI state negotiates the locale redirect at "/".
	ui, err := uistate.New(ctx, kv.NewMemory(), uistate.Options{
		DefaultTheme:    cfg.UI.DefaultTheme,
		DefaultLanguage: cfg.UI.DefaultLanguage,
		Languages:       cfg.UI.Languages,
	}, logger)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/*", server.GuideHandler(gen.OutputDir(), "", gen.Config(), ui))

	port, _ := cmd.Flags().GetInt("port")
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving at http://localhost:%d, press Ctrl+C to stop\n", port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving site: %w", err)
	}
	return nil
}
