package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "encoding: HarmonyGptOssBytes\nauto_drop_analysis: false\nserver_address: 0.0.0.0:9000\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Encoding != "HarmonyGptOssBytes" {
		t.Fatalf("encoding: got %q", cfg.Encoding)
	}
	if cfg.AutoDropAnalysis == nil || *cfg.AutoDropAnalysis {
		t.Fatalf("auto_drop_analysis should be false")
	}
	if cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("server_address: got %q", cfg.ServerAddress)
	}
}

func TestLoadConfigMissingAndMalformed(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}

	if _, err := LoadConfig(writeConfig(t, "encoding: [unterminated")); err == nil {
		t.Fatalf("expected an error for malformed yaml")
	}
}

// TestConfigOverlay runs the root command with a config file and checks
// that explicit flags win over config values.
func TestConfigOverlay(t *testing.T) {
	path := writeConfig(t, "encoding: HarmonyGptOssBytes\nlog_level: warn\nranks_path: /tmp/o200k.tiktoken\n")

	var gotEncoding, gotLevel, gotRanks string
	app := &cli.Command{
		Name:      "harmony",
		Flags:     globalFlags(),
		Before:    setup,
		ErrWriter: os.Stderr,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gotEncoding, gotLevel, gotRanks = encodingName, logLevel, ranksPath
			return nil
		},
	}
	args := []string{"harmony", "--config", path, "--log-level", "error"}
	if err := app.Run(context.Background(), args); err != nil {
		t.Fatalf("run: %v", err)
	}
	if gotEncoding != "HarmonyGptOssBytes" {
		t.Fatalf("encoding should come from config, got %q", gotEncoding)
	}
	if gotLevel != "error" {
		t.Fatalf("explicit --log-level should win, got %q", gotLevel)
	}
	if gotRanks != "/tmp/o200k.tiktoken" {
		t.Fatalf("ranks path should come from config, got %q", gotRanks)
	}
}
