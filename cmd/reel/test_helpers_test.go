package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/config"
	"reel/internal/testsupport"
)

type cliTestEnv struct {
	cfg         *config.Config
	baseDir     string
	configPath  string
	composition string
}

// setupCLITestEnv writes a config file pointing at temp directories and a
// composition of two stills repeated twice: 18 frames over 600ms.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "reel.toml")
	testsupport.WriteFile(t, configPath, fmt.Sprintf(
		"[paths]\nstate_dir = %q\nlog_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
	))

	testsupport.WritePNG(t, filepath.Join(base, "media", "title.png"), 32, 18)
	testsupport.WritePNG(t, filepath.Join(base, "media", "credits.png"), 32, 18)
	composition := filepath.Join(base, "media", "slides.toml")
	testsupport.WriteFile(t, composition, `name = "slides"

[[sequences]]
repeat = 2

[[sequences.entries]]
source = "title.png"
duration_ms = 100
frame_rate = 30

[[sequences.entries]]
source = "credits.png"
duration_ms = 200
frame_rate = 30
`)

	return &cliTestEnv{cfg: cfg, baseDir: base, configPath: configPath, composition: composition}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
