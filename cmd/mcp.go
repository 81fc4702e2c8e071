package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/content"
	mcpserver "github.com/ziadkadry99/studyguide/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing tools to list, read and search the guide's pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		guide := content.Config{
			RootDir: cfg.Site.ContentDir,
			Include: cfg.Site.Include,
			Exclude: cfg.Site.Exclude,
		}
		pages, err := content.Walk(guide)
		if err != nil {
			return fmt.Errorf("reading guide content: %w", err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "studyguide MCP server started on stdio (content=%s, pages=%d)\n", cfg.Site.ContentDir, len(pages))

		srv := mcpserver.NewServer(guide, Version)
		if err := srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
