package config

import "time"

const (
	// DefaultBatchSize is the number of resources fetched per batch.
	DefaultBatchSize = 10

	// DefaultMinBatchInterval rate-limits consecutive batches.
	DefaultMinBatchInterval = time.Second

	// DefaultTickInterval is the shared scheduler tick cadence.
	DefaultTickInterval = 60 * time.Second

	// DefaultRetryDelay reschedules a batch whose fetch failed.
	DefaultRetryDelay = 30 * time.Second

	// DefaultStaleThreshold marks deployments older than this as stale.
	DefaultStaleThreshold = 30 * time.Minute

	// DefaultResourcesSubdir is the resource store below the config directory.
	DefaultResourcesSubdir = "resources"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() Config {
	deep := true
	return Config{
		Scheduler: SchedulerConfig{
			BatchSize:        DefaultBatchSize,
			MinBatchInterval: DefaultMinBatchInterval,
			TickInterval:     DefaultTickInterval,
			RetryDelay:       DefaultRetryDelay,
		},
		Drift: DriftConfig{
			DeepCompare:    &deep,
			StaleThreshold: DefaultStaleThreshold,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}
