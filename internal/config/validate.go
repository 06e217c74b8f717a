package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateRelease(); err != nil {
		return err
	}
	if err := c.validateGraph(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOutput() error {
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return fmt.Errorf("output dimensions must be positive, got %dx%d", c.Output.Width, c.Output.Height)
	}
	if c.Output.FrameRate <= 0 {
		return errors.New("output.frame_rate must be positive")
	}
	switch c.Output.ColorRange {
	case "limited", "full":
	default:
		return fmt.Errorf("output.color_range: unsupported value %q", c.Output.ColorRange)
	}
	switch c.Output.ColorTransfer {
	case "sdr", "hlg", "pq":
	default:
		return fmt.Errorf("output.color_transfer: unsupported value %q", c.Output.ColorTransfer)
	}
	return nil
}

func (c *Config) validateRelease() error {
	if c.Release.LateThresholdUs >= 0 {
		return errors.New("release.late_threshold_us must be negative")
	}
	if c.Release.VeryLateThresholdUs >= c.Release.LateThresholdUs {
		return errors.New("release.very_late_threshold_us must be below release.late_threshold_us")
	}
	if c.Release.ForceReleaseGapUs <= 0 {
		return errors.New("release.force_release_gap_us must be positive")
	}
	return nil
}

func (c *Config) validateGraph() error {
	if c.Graph.QueueCapacity < 1 {
		return errors.New("graph.queue_capacity must be at least 1")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.ProbeTimeoutSeconds < 0 {
		return errors.New("media.probe_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
