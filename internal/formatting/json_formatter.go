package formatting

import (
	"encoding/json"

	"driftwatch/internal/reconciler"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatReport writes the report as indented JSON.
func (f *JSONFormatter) FormatReport(report Report) error {
	return f.encode(report)
}

// FormatMetrics writes the metrics summary as indented JSON.
func (f *JSONFormatter) FormatMetrics(summary reconciler.ReconcilerMetricsSummary) error {
	return f.encode(summary)
}

func (f *JSONFormatter) encode(v any) error {
	enc := json.NewEncoder(f.options.writer())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}
