package config

import "time"

// Config is the top-level configuration structure for driftwatch.
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Drift     DriftConfig     `yaml:"drift"`
	Resources ResourcesConfig `yaml:"resources"`
	Logging   LoggingConfig   `yaml:"logging"`
	Events    EventsConfig    `yaml:"events"`
}

// SchedulerConfig controls the reconciliation scheduler.
type SchedulerConfig struct {
	BatchSize        int           `yaml:"batchSize,omitempty"`        // Max resources per fetch (default: 10)
	MinBatchInterval time.Duration `yaml:"minBatchInterval,omitempty"` // Min gap between batches (default: 1s)
	TickInterval     time.Duration `yaml:"tickInterval,omitempty"`     // Shared tick cadence (default: 60s)
	RetryDelay       time.Duration `yaml:"retryDelay,omitempty"`       // Reschedule delay after a failed fetch (default: 30s)
	FetchTimeout     time.Duration `yaml:"fetchTimeout,omitempty"`     // Per-batch fetch timeout, 0 disables (default: 0)
}

// DriftConfig controls the drift comparator.
type DriftConfig struct {
	ExcludeFields  []string      `yaml:"excludeFields,omitempty"`  // Extra runtime-only field names or paths
	DeepCompare    *bool         `yaml:"deepCompare,omitempty"`    // Recurse into nested values (default: true)
	StaleThreshold time.Duration `yaml:"staleThreshold,omitempty"` // Deployment age considered stale (default: 30m)
}

// ResourcesConfig locates the resource store.
type ResourcesConfig struct {
	Dir string `yaml:"dir,omitempty"` // Resource directory (default: <configDir>/resources)
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format,omitempty"` // text or json (default: text)
}

// EventsConfig controls drift event messages emitted by the watch command.
type EventsConfig struct {
	File      string            `yaml:"file,omitempty"`      // JSON lines event log, relative to the config directory (default: none)
	Templates map[string]string `yaml:"templates,omitempty"` // Message template overrides keyed by event reason
}

// IsDeepCompare reports the effective deepCompare setting.
func (d DriftConfig) IsDeepCompare() bool {
	if d.DeepCompare == nil {
		return true
	}
	return *d.DeepCompare
}
