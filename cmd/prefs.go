package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/store"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change UI preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(cmd.OutOrStdout(), a.UI.Snapshot())
	},
}

var prefsThemeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show, set or toggle the theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		switch {
		case len(args) == 0:
		case args[0] == "toggle":
			if _, err := a.Store.Dispatch(ctx, store.ActionToggleTheme, nil); err != nil {
				return err
			}
		default:
			if _, err := a.Store.Dispatch(ctx, store.ActionSetTheme, args[0]); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.UI.Theme())
		return nil
	},
}

var prefsLanguageCmd = &cobra.Command{
	Use:   "language [tag]",
	Short: "Show or set the interface language",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			current := a.UI.Language()
			for _, l := range a.UI.SupportedLanguages() {
				marker := " "
				if l == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, l)
			}
			return nil
		}
		if _, err := a.Store.Dispatch(cmd.Context(), store.ActionSetLanguage, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.UI.Language())
		return nil
	},
}

var prefsSidebarCmd = &cobra.Command{
	Use:   "sidebar",
	Short: "Toggle the sidebar and print whether it is collapsed",
	Long:  `Toggles the sidebar. The sidebar state lives only as long as the process, so this is mostly useful through "state dispatch" against a running server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		collapsed, err := a.Store.Dispatch(cmd.Context(), store.ActionToggleSidebar, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "collapsed: %v\n", collapsed)
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsThemeCmd, prefsLanguageCmd, prefsSidebarCmd)
	rootCmd.AddCommand(prefsCmd)
}
