package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{
			MergeGapSeconds:      60,
			FlushIntervalSeconds: 30,
		},
		Storage: StorageConfig{
			Path:               "~/.config/intentflow/ltm",
			SQLiteFile:         "ltm.db",
			SQLiteJournalMode:  "wal",
			CompressionEnabled: true,
		},
		Rollup: RollupConfig{
			HotDays:       7,
			WarmDays:      30,
			IntervalHours: 1,
		},
		Retention: RetentionConfig{
			Days: 365,
		},
		Cache: CacheConfig{
			TTLMinutes: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
