package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOutput()
	c.normalizeGraph()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() {
	c.Output.MimeType = strings.ToLower(strings.TrimSpace(c.Output.MimeType))
	if c.Output.MimeType == "" {
		c.Output.MimeType = defaultMimeType
	}
	c.Output.ColorSpace = strings.ToLower(strings.TrimSpace(c.Output.ColorSpace))
	if c.Output.ColorSpace == "" {
		c.Output.ColorSpace = defaultColorSpace
	}
	c.Output.ColorRange = strings.ToLower(strings.TrimSpace(c.Output.ColorRange))
	if c.Output.ColorRange == "" {
		c.Output.ColorRange = defaultColorRange
	}
	c.Output.ColorTransfer = strings.ToLower(strings.TrimSpace(c.Output.ColorTransfer))
	if c.Output.ColorTransfer == "" {
		c.Output.ColorTransfer = defaultColorTransfer
	}
}

func (c *Config) normalizeGraph() {
	if c.Graph.QueueCapacity == 0 {
		c.Graph.QueueCapacity = defaultQueueCapacity
	}
}

func (c *Config) normalizeMedia() {
	if value, ok := os.LookupEnv("REEL_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Media.FFprobeBinary = strings.TrimSpace(value)
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Media.ProbeTimeoutSeconds == 0 {
		c.Media.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
