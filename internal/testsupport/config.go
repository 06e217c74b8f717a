package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Output.Width = 320
	cfgVal.Output.Height = 180

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOutputSize overrides the composited output dimensions.
func WithOutputSize(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Width = width
		b.cfg.Output.Height = height
	}
}

// WithQueueCapacity overrides the compositor queue size.
func WithQueueCapacity(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Graph.QueueCapacity = n
	}
}

// WithFFprobeStub writes a stub ffprobe that prints inspectJSON for stream
// inspection and framesJSON when frame entries are requested, and points the
// config at it.
func WithFFprobeStub(inspectJSON, framesJSON string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		inspectPath := filepath.Join(binDir, "inspect.json")
		framesPath := filepath.Join(binDir, "frames.json")
		if err := os.WriteFile(inspectPath, []byte(inspectJSON), 0o644); err != nil {
			b.t.Fatalf("write inspect fixture: %v", err)
		}
		if err := os.WriteFile(framesPath, []byte(framesJSON), 0o644); err != nil {
			b.t.Fatalf("write frames fixture: %v", err)
		}
		script := "#!/bin/sh\n" +
			"for arg in \"$@\"; do\n" +
			"  if [ \"$arg\" = \"-show_entries\" ]; then cat '" + framesPath + "'; exit 0; fi\n" +
			"done\n" +
			"cat '" + inspectPath + "'\n"
		target := filepath.Join(binDir, "ffprobe")
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write ffprobe stub: %v", err)
		}
		b.cfg.Media.FFprobeBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
