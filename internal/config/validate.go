package config

import (
	"errors"
	"fmt"
)

var validJournalModes = map[string]struct{}{
	"WAL":      {},
	"DELETE":   {},
	"TRUNCATE": {},
	"PERSIST":  {},
	"MEMORY":   {},
	"OFF":      {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateStore() error {
	if _, ok := validJournalModes[c.Store.JournalMode]; !ok {
		return fmt.Errorf("store.journal_mode: unsupported value %q", c.Store.JournalMode)
	}
	if c.Store.BusyTimeoutMS < 0 || c.Store.BusyTimeoutMS > maxBusyTimeoutMS {
		return fmt.Errorf("store.busy_timeout_ms must be between 0 and %d", maxBusyTimeoutMS)
	}
	return nil
}

func (c *Config) validateQueue() error {
	switch c.Queue.ClaimStage {
	case "generating", "rendering":
		return nil
	default:
		return fmt.Errorf("queue.claim_stage must be generating or rendering, got %q", c.Queue.ClaimStage)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
