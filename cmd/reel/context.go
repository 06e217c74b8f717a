package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/config"
	"reel/internal/history"
	"reel/internal/logging"
	"reel/internal/source"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeOnce sync.Once
	store     *history.Store
	storeErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loggerFor builds the configured logger once. A logger that cannot open its
// file outputs falls back to the console.
func (c *commandContext) loggerFor(cfg *config.Config) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			fallback, fallbackErr := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			if fallbackErr != nil {
				fallback = logging.NewNop()
			}
			fallback.Warn("file logging unavailable", logging.Error(err))
			logger = fallback
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) historyStore(cfg *config.Config) (*history.Store, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = history.Open(cfg)
	})
	return c.store, c.storeErr
}

func (c *commandContext) resolver(cfg *config.Config) source.Resolver {
	return source.FileResolver{
		FFprobe:      cfg.Media.FFprobeBinary,
		ProbeTimeout: time.Duration(cfg.Media.ProbeTimeoutSeconds) * time.Second,
		Logger:       c.loggerFor(cfg),
	}
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
