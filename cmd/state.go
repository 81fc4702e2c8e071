package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the store or run one of its actions",
}

var stateGetCmd = &cobra.Command{
	Use:   "get [getter]",
	Short: "Print a getter, or the whole state without the token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			snap := a.Store.Snapshot()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"isLoggedIn": snap.User.Token != "",
				"userInfo":   snap.User.User,
				"app":        snap.App,
			})
		}
		v, ok := a.Store.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown getter %q (available: %s)", args[0], strings.Join(a.Store.Getters(), ", "))
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

var stateDispatchCmd = &cobra.Command{
	Use:   "dispatch <action> [json payload]",
	Short: "Run a store action",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var payload any
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("payload is not valid JSON: %s", args[1])
			}
			payload = json.RawMessage(args[1])
		}
		result, err := a.Store.Dispatch(cmd.Context(), args[0], payload)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	stateCmd.AddCommand(stateGetCmd, stateDispatchCmd)
	rootCmd.AddCommand(stateCmd)
}
