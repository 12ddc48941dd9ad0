package formatting

import (
	"fmt"
	"strings"

	"driftwatch/internal/drift"
	"driftwatch/internal/reconciler"
	pkgstrings "driftwatch/pkg/strings"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatReport writes one line per resource and one indented line per
// drifted field.
func (f *ConsoleFormatter) FormatReport(report Report) error {
	w := f.options.writer()

	if len(report.Entries) == 0 {
		fmt.Fprintln(w, "No resources found.")
		return nil
	}

	for _, e := range report.Entries {
		status := fmt.Sprintf("%-8s", e.Result.Status)
		fmt.Fprintf(w, "%s %s %s %s\n", paint(f.options.Color, statusColor(e.Result.Status), status), e.UUID, e.Type, e.Name)

		if e.Result.Status == drift.StatusError {
			fmt.Fprintf(w, "    error: %s\n", e.Result.ErrorMessage)
		}
		for _, field := range e.Result.DriftedFields {
			fmt.Fprintf(w, "    %s [%s]: deployed %s, configured %s\n",
				field.Path,
				categoryLabel(field.Category),
				FormatValue(field.DeployValue, pkgstrings.DefaultCellMaxLen),
				FormatValue(field.ConfigValue, pkgstrings.DefaultCellMaxLen))
		}
		if f.options.Diff && e.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(e.Diff, "\n"), "\n") {
				fmt.Fprintf(w, "    %s\n", paint(f.options.Color, diffLineColor(line), line))
			}
		}
	}

	if !f.options.Quiet {
		fmt.Fprintln(w, summaryLine(report.Summary))
	}
	return nil
}

// FormatMetrics writes the metric totals as key/value lines.
func (f *ConsoleFormatter) FormatMetrics(summary reconciler.ReconcilerMetricsSummary) error {
	w := f.options.writer()
	fmt.Fprintf(w, "checks: %d (synced %d, drifted %d, errors %d, pending %d)\n",
		summary.TotalChecks, summary.TotalSynced, summary.TotalDrifted, summary.TotalErrors, summary.TotalPending)
	fmt.Fprintf(w, "transitions: %d detected, %d resolved\n", summary.TotalDriftDetected, summary.TotalDriftResolved)
	fmt.Fprintf(w, "fetch failures: %d, resources removed: %d\n", summary.TotalFetchFailures, summary.TotalResourcesRemoved)
	return nil
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}
