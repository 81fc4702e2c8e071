package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize studyguide configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the API, sign-in provider, state storage and guide content, and writes a .studyguide.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nNext steps:\n  studyguide site --serve    preview the guide from %s\n  studyguide login           sign in to %s\n", cfg.Site.ContentDir, cfg.API.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
