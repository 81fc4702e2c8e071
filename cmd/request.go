package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyguide/internal/apiclient"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Call the backend API through the request pipeline",
	Long: `Sends a request through the same pipeline the application uses: base URL and
timeout from the config, the stored bearer token, envelope decoding and
error notifications. A 401 answer signs you out.`,
}

func queryCommand(method string, call func(*apiclient.Client, context.Context, string, url.Values) (*apiclient.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   strings.ToLower(method) + " <path> [key=value...]",
		Short: "Send a " + method + " with query parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			return runRequest(cmd, func(c *apiclient.Client, ctx context.Context) (*apiclient.Response, error) {
				return call(c, ctx, args[0], params)
			})
		},
	}
}

func bodyCommand(method string, call func(*apiclient.Client, context.Context, string, any) (*apiclient.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   strings.ToLower(method) + " <path> [json | @file | -]",
		Short: "Send a " + method + " with a JSON body",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if len(args) == 2 {
				raw, err := readBody(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
				body = raw
			}
			return runRequest(cmd, func(c *apiclient.Client, ctx context.Context) (*apiclient.Response, error) {
				return call(c, ctx, args[0], body)
			})
		},
	}
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path> field=@file... [key=value...]",
	Short: "Send a multipart/form-data upload",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		form := &apiclient.FormData{Fields: map[string]string{}}
		for _, arg := range args[1:] {
			k, v, ok := strings.Cut(arg, "=")
			if !ok || k == "" {
				return fmt.Errorf("invalid form field %q: want key=value or field=@file", arg)
			}
			if !strings.HasPrefix(v, "@") {
				form.Fields[k] = v
				continue
			}
			f, err := os.Open(v[1:])
			if err != nil {
				return err
			}
			defer f.Close()
			form.Files = append(form.Files, apiclient.File{Field: k, Name: filepath.Base(f.Name()), Content: f})
		}
		return runRequest(cmd, func(c *apiclient.Client, ctx context.Context) (*apiclient.Response, error) {
			return c.Upload(ctx, args[0], form)
		})
	},
}

func init() {
	requestCmd.AddCommand(
		queryCommand("GET", (*apiclient.Client).Get),
		queryCommand("DELETE", (*apiclient.Client).Delete),
		bodyCommand("POST", (*apiclient.Client).Post),
		bodyCommand("PUT", (*apiclient.Client).Put),
		uploadCmd,
	)
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, send func(*apiclient.Client, context.Context) (*apiclient.Response, error)) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := send(a.API, cmd.Context())
	if err != nil {
		return err
	}
	return printRaw(cmd.OutOrStdout(), resp.Data)
}

// parsePairs turns key=value arguments into query parameters.
func parsePairs(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", arg)
		}
		params.Add(k, v)
	}
	return params, nil
}

// readBody reads a JSON body given inline, as @file, or as - for stdin.
func readBody(stdin io.Reader, arg string) (json.RawMessage, error) {
	var data []byte
	var err error
	switch {
	case arg == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		data, err = os.ReadFile(arg[1:])
	default:
		data = []byte(arg)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return json.RawMessage(data), nil
}
