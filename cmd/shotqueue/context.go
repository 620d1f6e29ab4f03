package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shotqueue/internal/config"
	"shotqueue/internal/logging"
	"shotqueue/internal/queue"
	"shotqueue/internal/services"
)

type commandContext struct {
	configFlag *string
	dbFlag     *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	correlationID string
}

func newCommandContext(configFlag, dbFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		dbFlag:        dbFlag,
		jsonFlag:      jsonFlag,
		correlationID: uuid.NewString(),
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "prepare data directory", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// JSONMode reports whether --json was requested.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) databasePath(cfg *config.Config) (string, error) {
	if c.dbFlag != nil {
		if override := strings.TrimSpace(*c.dbFlag); override != "" {
			return config.ExpandPath(override)
		}
	}
	return cfg.DatabasePath(), nil
}

// withStore opens the queue store for the duration of fn. The context passed
// to fn carries the invocation's correlation id.
func (c *commandContext) withStore(cmd *cobra.Command, fn func(context.Context, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	path, err := c.databasePath(cfg)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "resolve --db", "", err)
	}

	ctx := services.WithRequestID(cmd.Context(), c.correlationID)
	store, err := queue.OpenPath(path, queue.Options{
		JournalMode:   cfg.Store.JournalMode,
		BusyTimeoutMS: cfg.Store.BusyTimeoutMS,
		Logger:        logging.WithContext(ctx, logger),
	})
	if err != nil {
		return classifyStoreError("store", "open", err)
	}
	defer store.Close()

	return fn(ctx, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
