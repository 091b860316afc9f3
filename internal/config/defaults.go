package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:        "~/.config/webtally",
			SQLiteFile:  "webtally.db",
			JournalMode: "wal",
		},
		Daemon: DaemonConfig{
			Host: "127.0.0.1",
			Port: 7764,
		},
		Retention: RetentionConfig{
			PruneIntervalHours: 24,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "webtally.log",
		},
	}
}
