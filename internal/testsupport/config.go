package testsupport

import (
	"testing"

	"shotqueue/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Paths.DataDir = t.TempDir()
	cfgVal.Logging.Level = "error"

	for _, opt := range opts {
		opt(&cfgVal)
	}
	return &cfgVal
}

// WithJournalMode overrides the SQLite journal mode.
func WithJournalMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.JournalMode = mode
	}
}

// WithClaimStage overrides the default claim stage.
func WithClaimStage(stage string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.ClaimStage = stage
	}
}
