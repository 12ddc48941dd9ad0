package formatting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"driftwatch/internal/drift"
	pkgstrings "driftwatch/pkg/strings"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(SupportedFormats, s) {
		return "", fmt.Errorf("unsupported output format %q (expected one of: %s)", s, strings.Join(SupportedFormats, ", "))
	}
	return OutputFormat(s), nil
}

// PrettyJSON formats any value as indented JSON for human-readable display.
// It handles marshaling errors gracefully by falling back to fmt.Sprintf.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// FormatValue renders a field value as compact single-line JSON, truncated
// to maxLen. Missing values render as "<absent>".
func FormatValue(v any, maxLen int) string {
	if v == nil {
		return "<absent>"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(drift.Normalize(v)); err != nil {
		return pkgstrings.Truncate(fmt.Sprintf("%v", v), maxLen)
	}
	return pkgstrings.Truncate(buf.String(), maxLen)
}

// statusColor maps a drift status to its display color.
func statusColor(status drift.Status) text.Color {
	switch status {
	case drift.StatusSynced:
		return text.FgGreen
	case drift.StatusDrifted:
		return text.FgYellow
	case drift.StatusError:
		return text.FgRed
	case drift.StatusChecking:
		return text.FgCyan
	default:
		return text.FgHiBlack
	}
}

// paint applies color only when enabled.
func paint(enabled bool, color text.Color, s string) string {
	if !enabled {
		return s
	}
	return color.Sprint(s)
}

// diffLineColor colors a RenderDiff line by its marker.
func diffLineColor(line string) text.Color {
	switch {
	case strings.HasPrefix(line, "+"):
		return text.FgGreen
	case strings.HasPrefix(line, "-"):
		return text.FgRed
	default:
		return text.FgHiBlack
	}
}

func categoryLabel(c drift.Category) string {
	if c == drift.CategoryNone {
		return "structural"
	}
	return string(c)
}

func summaryLine(summary drift.Summary) string {
	return fmt.Sprintf("%d resources: %d synced, %d drifted, %d error, %d pending",
		summary.Total,
		summary.ByStatus[drift.StatusSynced],
		summary.ByStatus[drift.StatusDrifted],
		summary.ByStatus[drift.StatusError],
		summary.ByStatus[drift.StatusPending])
}
