package formatting

import (
	"gopkg.in/yaml.v3"

	"driftwatch/internal/reconciler"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatReport writes the report as YAML.
func (f *YAMLFormatter) FormatReport(report Report) error {
	return f.encode(report)
}

// FormatMetrics writes the metrics summary as YAML. The summary only carries
// JSON tags, so keys are lowercased field names.
func (f *YAMLFormatter) FormatMetrics(summary reconciler.ReconcilerMetricsSummary) error {
	return f.encode(summary)
}

func (f *YAMLFormatter) encode(v any) error {
	enc := yaml.NewEncoder(f.options.writer())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}
