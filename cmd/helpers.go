package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/app"
	"github.com/ziadkadry99/studyguide/internal/config"
	"github.com/ziadkadry99/studyguide/internal/logging"
)

// loadConfig loads the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `studyguide init` to create a config file", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger; --verbose forces debug.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Format, cmd.ErrOrStderr())
}

// openApp loads the config and wires every module. Notifications are
// echoed to stderr. Callers must Close the app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, app.Options{
		Logger:  newLogger(cmd, cfg),
		Notices: cmd.ErrOrStderr(),
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRaw pretty-prints a JSON document, or writes it as-is when it is
// not valid JSON.
func printRaw(w io.Writer, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	return printJSON(w, v)
}
