package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"driftwatch/internal/drift"
	"driftwatch/internal/reconciler"
	pkgstrings "driftwatch/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatReport writes one row per resource, followed by a field table for
// every drifted resource and, when enabled, its line diff.
func (f *TableFormatter) FormatReport(report Report) error {
	w := f.options.writer()

	if len(report.Entries) == 0 {
		fmt.Fprint(w, f.formatEmptyMessage("📋", "No resources found"))
		return nil
	}

	t := f.createTable(w)
	t.AppendHeader(f.header("UUID", "TYPE", "NAME", "PRIORITY", "STATUS", "FIELDS", "STALE", "CHECKED"))
	for _, e := range report.Entries {
		t.AppendRow(table.Row{
			e.UUID,
			e.Type,
			dashIfEmpty(e.Name),
			e.Priority,
			paint(f.options.Color, statusColor(e.Result.Status), string(e.Result.Status)),
			len(e.Result.DriftedFields),
			yesNo(e.Result.IsStale),
			e.Result.LastChecked.Format("15:04:05"),
		})
	}
	t.Render()

	for _, e := range report.Entries {
		switch {
		case len(e.Result.DriftedFields) > 0:
			f.formatDriftedFields(w, e)
		case e.Result.Status == drift.StatusError:
			fmt.Fprintf(w, "\n%s %s: %s\n", paint(f.options.Color, text.FgRed, "✗"), e.UUID, e.Result.ErrorMessage)
		}
	}

	if !f.options.Quiet {
		fmt.Fprintf(w, "\n%s %s\n", paint(f.options.Color, text.FgHiBlue, "Total:"), summaryLine(report.Summary))
	}
	return nil
}

func (f *TableFormatter) formatDriftedFields(w io.Writer, e ReportEntry) {
	title := e.UUID
	if e.Name != "" {
		title = fmt.Sprintf("%s (%s)", e.Name, e.UUID)
	}
	fmt.Fprintf(w, "\n%s\n", paint(f.options.Color, text.FgYellow, "Drift in "+title))

	t := f.createTable(w)
	t.AppendHeader(f.header("PATH", "CATEGORY", "CONFIGURED", "DEPLOYED"))
	for _, field := range e.Result.DriftedFields {
		t.AppendRow(table.Row{
			pkgstrings.TruncatePath(field.Path, pkgstrings.DefaultCellMaxLen),
			categoryLabel(field.Category),
			FormatValue(field.ConfigValue, pkgstrings.DefaultCellMaxLen),
			FormatValue(field.DeployValue, pkgstrings.DefaultCellMaxLen),
		})
	}
	t.Render()

	if f.options.Diff && e.Diff != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(strings.TrimRight(e.Diff, "\n"), "\n") {
			fmt.Fprintln(w, paint(f.options.Color, diffLineColor(line), line))
		}
	}
}

// FormatMetrics writes the totals and a per-resource-type breakdown.
func (f *TableFormatter) FormatMetrics(summary reconciler.ReconcilerMetricsSummary) error {
	w := f.options.writer()

	totals := f.createTable(w)
	totals.AppendHeader(f.header("METRIC", "VALUE"))
	totals.AppendRows([]table.Row{
		{"checks", summary.TotalChecks},
		{"synced", summary.TotalSynced},
		{"drifted", summary.TotalDrifted},
		{"errors", summary.TotalErrors},
		{"pending", summary.TotalPending},
		{"drift detected", summary.TotalDriftDetected},
		{"drift resolved", summary.TotalDriftResolved},
		{"fetch failures", summary.TotalFetchFailures},
		{"resources removed", summary.TotalResourcesRemoved},
		{"drift rate", fmt.Sprintf("%.1f%%", summary.DriftRate*100)},
		{"error rate", fmt.Sprintf("%.1f%%", summary.ErrorRate*100)},
	})
	totals.Render()

	if len(summary.PerResourceTypeMetrics) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	perType := f.createTable(w)
	perType.AppendHeader(f.header("TYPE", "CHECKS", "SYNCED", "DRIFTED", "ERRORS", "DETECTED", "RESOLVED"))
	for _, m := range summary.PerResourceTypeMetrics {
		perType.AppendRow(table.Row{m.ResourceType, m.Checks, m.Synced, m.Drifted, m.Errors, m.DriftDetected, m.DriftResolved})
	}
	perType.Render()
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(columns ...string) table.Row {
	row := make(table.Row, len(columns))
	for i, c := range columns {
		row[i] = paint(f.options.Color, text.FgHiCyan, c)
	}
	return row
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", paint(f.options.Color, text.FgYellow, icon), paint(f.options.Color, text.FgYellow, message))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
