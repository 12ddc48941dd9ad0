package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"driftwatch/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeDriftDetected indicates `check --fail-on-drift` found drifted resources.
	ExitCodeDriftDetected = 2
)

// DriftDetectedError is returned by `check --fail-on-drift` when at least one
// resource drifted.
type DriftDetectedError struct {
	Count int
}

func (e *DriftDetectedError) Error() string {
	return fmt.Sprintf("drift detected on %d resource(s)", e.Count)
}

// globalOptions holds the persistent flags shared by all subcommands.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// versionTemplate renders --version output.
const versionTemplate = `{{printf "driftwatch version %s\n" .Version}}`

// version is injected by main through SetVersion.
var version string

// rootCmd represents the base command for the driftwatch application.
var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd builds the command tree. Tests build their own tree so flag
// state does not leak between them.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "driftwatch",
		Short: "Detect configuration drift on managed routers",
		Long: `driftwatch compares the configuration you manage for each router resource
(interfaces, VPN tunnels, firewall rules, DHCP, ...) with the fields the router
reported after the last deployment, and tells you what changed behind your back.

Run 'driftwatch check' for a one-shot report or 'driftwatch watch' to keep
checking on a schedule that favours connectivity-critical resources.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(versionTemplate)

	root.PersistentFlags().StringVar(&opts.configPath, "config-path", defaultConfigPath(), "Configuration directory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the configuration)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (overrides the configuration)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newHashCmd())
	root.AddCommand(newPriorityCmd())

	return root
}

func defaultConfigPath() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return ".driftwatch"
	}
	return path
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var drifted *DriftDetectedError
	if errors.As(err, &drifted) {
		return ExitCodeDriftDetected
	}

	return ExitCodeError
}
