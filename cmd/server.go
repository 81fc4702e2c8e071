package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/progress"
	"github.com/ziadkadry99/studyguide/internal/server"
	"github.com/ziadkadry99/studyguide/internal/site"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the guide's views, state API and generated site",
	Long: `Starts the studyguide server: navigation views, the state and session API,
notifications over REST and websocket, Prometheus metrics, and the generated
guide under /guide.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().Int("port", 0, "port to listen on (defaults to server.port)")
	serverCmd.Flags().Bool("no-site", false, "do not generate or mount the guide")
	serverCmd.Flags().Bool("watch", false, "regenerate the guide when content changes")
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	cfg := a.Config
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}

	srvCfg := server.Config{Port: cfg.Server.Port, AllowAll: cfg.Server.AllowAll}
	guideCfg := *a.Site
	noSite, _ := cmd.Flags().GetBool("no-site")
	if !noSite {
		// Links in the generated pages must carry the mount point.
		guideCfg.Base = server.GuidePrefix + "/"
		gen, err := a.Generator(progress.NewReporter(cmd.ErrOrStderr()), &guideCfg)
		if err != nil {
			return err
		}
		res, err := gen.Generate(ctx)
		if err != nil {
			return fmt.Errorf("generating guide: %w", err)
		}
		srvCfg.SiteDir = gen.OutputDir()
		a.Logger.Info("guide generated", "pages", res.Pages, "dir", gen.OutputDir())

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			go func() {
				if err := gen.Watch(ctx, site.DefaultDebounce, nil); err != nil {
					a.Logger.Error("watching content", "error", err)
				}
			}()
		}
	}

	srv := server.New(srvCfg, server.Deps{
		Store:         a.Store,
		Router:        a.Router,
		Notifications: a.Notifications,
		History:       a.History,
		Hub:           a.Hub,
		Site:          &guideCfg,
		Gatherer:      a.Registry,
		Logger:        a.Logger,
	})

	fmt.Fprintf(cmd.ErrOrStderr(), "studyguide server %s starting on port %d\n", Version, cfg.Server.Port)
	fmt.Fprintf(cmd.ErrOrStderr(), "  API: %s\n", a.API.BaseURL())
	fmt.Fprintf(cmd.ErrOrStderr(), "  State: %s (%s)\n", cfg.Storage.Backend, a.DB.Path())
	if srvCfg.SiteDir != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "  Guide: http://localhost:%d%s/\n", cfg.Server.Port, server.GuidePrefix)
	}

	start := time.Now()
	err = srv.Run(ctx)
	a.Logger.Info("server stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}
