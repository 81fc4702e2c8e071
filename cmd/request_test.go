package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParsePairs(t *testing.T) {
	params, err := parsePairs([]string{"page=2", "tag=a", "tag=b", "q="})
	if err != nil {
		t.Fatalf("parsePairs() error: %v", err)
	}
	if got := params.Encode(); got != "page=2&q=&tag=a&tag=b" {
		t.Errorf("Encode() = %q", got)
	}

	if _, err := parsePairs([]string{"novalue"}); err == nil {
		t.Error("expected error for argument without '='")
	}
	if _, err := parsePairs([]string{"=x"}); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestReadBody(t *testing.T) {
	file := filepath.Join(t.TempDir(), "body.json")
	if err := os.WriteFile(file, []byte(`{"from":"file"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		arg     string
		stdin   string
		want    string
		wantErr bool
	}{
		{"inline", `{"name":"button"}`, "", `{"name":"button"}`, false},
		{"file", "@" + file, "", `{"from":"file"}`, false},
		{"stdin", "-", `[1,2]`, `[1,2]`, false},
		{"invalid", `{name}`, "", "", true},
		{"missing file", "@" + file + ".missing", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readBody(strings.NewReader(tt.stdin), tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readBody() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("readBody() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"init", "site", "server", "login", "logout", "whoami", "prefs", "request", "state", "notifications", "mcp", "version"}
	for _, name := range want {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, sub := range []string{"get", "post", "put", "delete", "upload"} {
		if c, _, err := rootCmd.Find([]string{"request", sub}); err != nil || c.Name() != sub {
			t.Errorf("request %s not registered", sub)
		}
	}
}
