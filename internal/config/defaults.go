package config

const (
	defaultDataDir        = "~/.local/share/shotqueue"
	defaultConfigPath     = "~/.config/shotqueue/config.toml"
	defaultDatabaseName   = "shotqueue.db"
	defaultLogFileName    = "shotqueue.log"
	defaultJournalMode    = "WAL"
	defaultBusyTimeoutMS  = 5000
	defaultPriority       = 0
	defaultClaimStage     = "generating"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	dataDirEnv            = "SHOTQUEUE_DATA_DIR"
	projectConfigFileName = "shotqueue.toml"
	maxBusyTimeoutMS      = 600000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Store: Store{
			JournalMode:   defaultJournalMode,
			BusyTimeoutMS: defaultBusyTimeoutMS,
		},
		Queue: Queue{
			DefaultPriority: defaultPriority,
			ClaimStage:      defaultClaimStage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
