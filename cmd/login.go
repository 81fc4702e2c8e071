package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/session"
	"github.com/ziadkadry99/studyguide/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the configured auth provider",
	Long: `Exchanges a username and password for a token with the configured provider
(the API login endpoint or an OAuth2 password grant). The token and profile
are stored together and sent as a bearer token on later requests.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored token and profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Store.Dispatch(cmd.Context(), store.ActionLogout, nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		u := a.Session.User()
		if u == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		return printJSON(cmd.OutOrStdout(), u)
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "username (prompted when omitted)")
	loginCmd.Flags().StringP("password", "p", "", "password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	creds := session.Credentials{}
	creds.Username, _ = cmd.Flags().GetString("username")
	creds.Password, _ = cmd.Flags().GetString("password")

	if creds.Username == "" {
		p := promptui.Prompt{
			Label: "Username",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("username is required")
				}
				return nil
			},
		}
		if creds.Username, err = p.Run(); err != nil {
			return fmt.Errorf("username: %w", err)
		}
	}
	if creds.Password == "" {
		p := promptui.Prompt{Label: "Password", Mask: '*'}
		if creds.Password, err = p.Run(); err != nil {
			return fmt.Errorf("password: %w", err)
		}
	}
	creds.Username = strings.TrimSpace(creds.Username)

	if _, err := a.Store.Dispatch(cmd.Context(), store.ActionLogin, creds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", a.Session.Username())
	return nil
}
