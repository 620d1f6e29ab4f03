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
	c.normalizeStore()
	c.normalizeQueue()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(dataDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.JournalMode = strings.ToUpper(strings.TrimSpace(c.Store.JournalMode))
	if c.Store.JournalMode == "" {
		c.Store.JournalMode = defaultJournalMode
	}
	if c.Store.BusyTimeoutMS == 0 {
		c.Store.BusyTimeoutMS = defaultBusyTimeoutMS
	}
}

func (c *Config) normalizeQueue() {
	c.Queue.ClaimStage = strings.ToLower(strings.TrimSpace(c.Queue.ClaimStage))
	if c.Queue.ClaimStage == "" {
		c.Queue.ClaimStage = defaultClaimStage
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
