package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/notifications"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List recorded notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		filter := notifications.ListFilter{}
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		filter.Source, _ = cmd.Flags().GetString("source")
		if lvl, _ := cmd.Flags().GetString("level"); lvl != "" {
			if filter.Level, err = notifications.ParseLevel(lvl); err != nil {
				return err
			}
		}
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		list, err := a.History.List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), list)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No notifications recorded")
			return nil
		}
		for _, n := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-7s  %s\n",
				n.CreatedAt.Local().Format(time.DateTime), strings.ToUpper(string(n.Level)), n.Message)
		}
		return nil
	},
}

func init() {
	notificationsCmd.Flags().Int("limit", 20, "maximum number of notifications")
	notificationsCmd.Flags().String("level", "", "only this level (info, success, warning, error)")
	notificationsCmd.Flags().String("source", "", "only notifications raised by this source")
	notificationsCmd.Flags().Duration("since", 0, "only notifications newer than this, e.g. 24h")
	notificationsCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(notificationsCmd)
}
