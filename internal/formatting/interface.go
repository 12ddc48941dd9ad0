// Package formatting renders drift reports and scheduler metrics for the
// command line in console, table, JSON and YAML form.
package formatting

import (
	"io"
	"os"
	"time"

	"driftwatch/internal/drift"
	"driftwatch/internal/reconciler"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// SupportedFormats lists the values accepted by ParseFormat.
var SupportedFormats = []string{string(FormatTable), string(FormatConsole), string(FormatJSON), string(FormatYAML)}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
	Diff   bool // Include line diffs of drifted resources

	// Output defaults to os.Stdout
	Output io.Writer
}

func (o Options) writer() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// ReportEntry is the outcome of checking one resource.
type ReportEntry struct {
	UUID     string       `json:"uuid" yaml:"uuid"`
	Type     string       `json:"type" yaml:"type"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Priority string       `json:"priority" yaml:"priority"`
	Result   drift.Result `json:"result" yaml:"result"`

	// Diff is the rendered line diff, set only when requested.
	Diff string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Report is the outcome of one check run.
type Report struct {
	RunID     string        `json:"runId" yaml:"runId"`
	CheckedAt time.Time     `json:"checkedAt" yaml:"checkedAt"`
	Entries   []ReportEntry `json:"entries" yaml:"entries"`
	Summary   drift.Summary `json:"summary" yaml:"summary"`
}

// NewReport builds a report and its summary from the given entries.
func NewReport(runID string, checkedAt time.Time, entries []ReportEntry) Report {
	results := make(map[string]drift.Result, len(entries))
	for _, e := range entries {
		results[e.UUID] = e.Result
	}
	if entries == nil {
		entries = []ReportEntry{}
	}
	return Report{
		RunID:     runID,
		CheckedAt: checkedAt,
		Entries:   entries,
		Summary:   drift.Summarize(results),
	}
}

// Formatter renders command output.
type Formatter interface {
	// FormatReport writes the result of a check run.
	FormatReport(report Report) error

	// FormatMetrics writes a scheduler metrics summary.
	FormatMetrics(summary reconciler.ReconcilerMetricsSummary) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// NewFormatter creates the appropriate formatter based on options
func NewFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatConsole:
		return NewConsoleFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}
