package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"driftwatch/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/driftwatch"
	configFileName = "config.yaml"
	envFileName    = ".env"

	envPrefix = "DRIFTWATCH_"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/driftwatch.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads configuration from the given directory.
// A missing config.yaml is not an error; defaults are used instead.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, NewConfigurationError(configFilePath, "parse", "invalid YAML", err.Error(),
				[]string{"Check indentation and that durations use Go syntax such as 30s or 5m"})
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	default:
		return Config{}, NewConfigurationError(configFilePath, "io", "cannot read configuration", err.Error(), nil)
	}

	if err := loadEnvFile(filepath.Join(configPath, envFileName)); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&config); err != nil {
		return Config{}, err
	}

	if config.Resources.Dir == "" {
		config.Resources.Dir = filepath.Join(configPath, DefaultResourcesSubdir)
	} else if !filepath.IsAbs(config.Resources.Dir) {
		config.Resources.Dir = filepath.Join(configPath, config.Resources.Dir)
	}

	if config.Events.File != "" && !filepath.IsAbs(config.Events.File) {
		config.Events.File = filepath.Join(configPath, config.Events.File)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return config, nil
}

// loadEnvFile exports the variables of an optional .env file. Variables that
// are already set in the environment keep their value.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return NewConfigurationError(path, "parse", "invalid .env file", err.Error(), nil)
	}
	logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	return nil
}

// applyEnvOverrides reads DRIFTWATCH_* variables into config.
func applyEnvOverrides(config *Config) error {
	var errs ValidationErrors

	if v, ok := lookupEnv("BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs.Add(envPrefix+"BATCH_SIZE", "must be an integer", v)
		} else {
			config.Scheduler.BatchSize = n
		}
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"MIN_BATCH_INTERVAL", &config.Scheduler.MinBatchInterval},
		{"TICK_INTERVAL", &config.Scheduler.TickInterval},
		{"RETRY_DELAY", &config.Scheduler.RetryDelay},
		{"FETCH_TIMEOUT", &config.Scheduler.FetchTimeout},
		{"STALE_THRESHOLD", &config.Drift.StaleThreshold},
	}
	for _, d := range durations {
		v, ok := lookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			errs.Add(envPrefix+d.key, "must be a duration such as 30s", v)
			continue
		}
		*d.target = parsed
	}

	if v, ok := lookupEnv("DEEP_COMPARE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs.Add(envPrefix+"DEEP_COMPARE", "must be a boolean", v)
		} else {
			config.Drift.DeepCompare = &b
		}
	}

	if v, ok := lookupEnv("EXCLUDE_FIELDS"); ok {
		config.Drift.ExcludeFields = nil
		for _, field := range strings.Split(v, ",") {
			if field = strings.TrimSpace(field); field != "" {
				config.Drift.ExcludeFields = append(config.Drift.ExcludeFields, field)
			}
		}
	}

	if v, ok := lookupEnv("RESOURCES_DIR"); ok {
		config.Resources.Dir = v
	}
	if v, ok := lookupEnv("EVENTS_FILE"); ok {
		config.Events.File = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		config.Logging.Level = v
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		config.Logging.Format = v
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
