package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/pkg/logging"
)

// loadRuntime loads the configuration and initializes logging on the
// command's error stream. Log flags take precedence over the configuration.
func loadRuntime(cmd *cobra.Command, opts *globalOptions) (config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.ValidateOneOf("logging.format", cfg.Logging.Format, []string{config.LogFormatText, config.LogFormatJSON}); err != nil {
		return config.Config{}, err
	}

	if cfg.Logging.Format == config.LogFormatJSON {
		logging.InitForJSON(level, cmd.ErrOrStderr())
	} else {
		logging.InitForCLI(level, cmd.ErrOrStderr())
	}

	logging.Debug("CLI", "Loaded configuration from %s, resources in %s", opts.configPath, cfg.Resources.Dir)
	return cfg, nil
}

// compareOptions translates the drift section of the configuration.
func compareOptions(cfg config.Config) drift.Options {
	opts := drift.DefaultOptions()
	opts.ExcludeFields = cfg.Drift.ExcludeFields
	opts.DeepCompare = cfg.Drift.IsDeepCompare()
	if cfg.Drift.StaleThreshold > 0 {
		opts.StaleThreshold = cfg.Drift.StaleThreshold
	}
	return opts
}

// useColor reports whether the command writes to a terminal and NO_COLOR
// is unset.
func useColor(cmd *cobra.Command) bool {
	if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
