package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reel/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "reel")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Output.Width != 1280 || cfg.Output.Height != 720 || cfg.Output.FrameRate != 30 {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Release.LateThresholdUs != -30_000 || cfg.Release.VeryLateThresholdUs != -500_000 || cfg.Release.ForceReleaseGapUs != 100_000 {
		t.Fatalf("unexpected release defaults: %+v", cfg.Release)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REEL_FFPROBE", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
state_dir = "~/reel-state"
log_dir = ""

[output]
width = 640
height = 360
frame_rate = 25.0
color_range = "FULL"

[release]
force_release_gap_us = 50000
treat_dropped_as_skipped = true

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be found at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "reel-state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.LogDir != "" {
		t.Fatalf("expected empty log dir, got %q", cfg.Paths.LogDir)
	}
	if cfg.Output.Width != 640 || cfg.Output.FrameRate != 25 || cfg.Output.ColorRange != "full" {
		t.Fatalf("unexpected output: %+v", cfg.Output)
	}
	if cfg.Release.ForceReleaseGapUs != 50_000 || !cfg.Release.TreatDroppedAsSkipped {
		t.Fatalf("unexpected release: %+v", cfg.Release)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestFFprobeEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REEL_FFPROBE", "/opt/ffmpeg/bin/ffprobe")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Media.FFprobeBinary != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("expected env override, got %q", cfg.Media.FFprobeBinary)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero width", func(c *config.Config) { c.Output.Width = 0 }, "output dimensions"},
		{"zero frame rate", func(c *config.Config) { c.Output.FrameRate = 0 }, "frame_rate"},
		{"bad range", func(c *config.Config) { c.Output.ColorRange = "studio" }, "color_range"},
		{"positive late threshold", func(c *config.Config) { c.Release.LateThresholdUs = 10 }, "late_threshold_us"},
		{"very late above late", func(c *config.Config) { c.Release.VeryLateThresholdUs = -1000 }, "very_late_threshold_us"},
		{"zero gap", func(c *config.Config) { c.Release.ForceReleaseGapUs = 0 }, "force_release_gap_us"},
		{"zero queue", func(c *config.Config) { c.Graph.QueueCapacity = 0 }, "queue_capacity"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Output.Width != config.Default().Output.Width {
		t.Fatalf("sample width %d does not match default", cfg.Output.Width)
	}
	if cfg.Release.LateThresholdUs != config.Default().Release.LateThresholdUs {
		t.Fatalf("sample late threshold %d does not match default", cfg.Release.LateThresholdUs)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
