package formatting

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"driftwatch/internal/drift"
	"driftwatch/internal/reconciler"
)

var checkedAt = time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

func sampleReport() Report {
	return NewReport("run-1", checkedAt, []ReportEntry{
		{
			UUID:     "6f1c2a7e-4b8d-4c1e-9a57-0d2f3b6e8a11",
			Type:     "vpn.wireguard",
			Name:     "wg0",
			Priority: "HIGH",
			Result: drift.Result{
				HasDrift: true,
				Status:   drift.StatusDrifted,
				DriftedFields: []drift.DriftedField{
					{Path: "listenPort", ConfigValue: 51820, DeployValue: 51821, Category: drift.CategoryNetwork},
				},
				LastChecked: checkedAt,
			},
			Diff: "  {\n-   \"listenPort\": 51821\n+   \"listenPort\": 51820\n  }\n",
		},
		{
			UUID:     "0b9e3d52-1f7a-4e36-8c4d-5a2b7f9e1c03",
			Type:     "lan",
			Name:     "lan",
			Priority: "NORMAL",
			Result:   drift.Result{Status: drift.StatusSynced, DriftedFields: []drift.DriftedField{}, LastChecked: checkedAt},
		},
	})
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(Options{Format: FormatJSON}))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(Options{Format: FormatYAML}))
	assert.IsType(t, &ConsoleFormatter{}, NewFormatter(Options{Format: FormatConsole}))
	assert.IsType(t, &TableFormatter{}, NewFormatter(Options{Format: FormatTable}))
	assert.IsType(t, &TableFormatter{}, NewFormatter(Options{}))
}

func TestNewReport_Summary(t *testing.T) {
	report := sampleReport()
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.ByStatus[drift.StatusDrifted])
	assert.Equal(t, 1, report.Summary.ByCategory[drift.CategoryNetwork])

	empty := NewReport("run-2", checkedAt, nil)
	assert.NotNil(t, empty.Entries)
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(Options{Output: &buf}).FormatReport(sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])

	entries := decoded["entries"].([]any)
	require.Len(t, entries, 2)
	result := entries[0].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, "DRIFTED", result["status"])
}

func TestYAMLFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(Options{Output: &buf}).FormatReport(sampleReport()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Contains(t, buf.String(), "status: DRIFTED")
	assert.Contains(t, buf.String(), "path: listenPort")
}

func TestTableFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewTableFormatter(Options{Output: &buf, Diff: true})
	require.NoError(t, formatter.FormatReport(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "vpn.wireguard")
	assert.Contains(t, out, "DRIFTED")
	assert.Contains(t, out, "SYNCED")
	assert.Contains(t, out, "Drift in wg0 (6f1c2a7e-4b8d-4c1e-9a57-0d2f3b6e8a11)")
	assert.Contains(t, out, "listenPort")
	assert.Contains(t, out, "network")
	assert.Contains(t, out, `+   "listenPort": 51820`)
	assert.Contains(t, out, "2 resources: 1 synced, 1 drifted, 0 error, 0 pending")
	assert.NotContains(t, out, "\x1b[", "colors are off")
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{Output: &buf}).FormatReport(NewReport("r", checkedAt, nil)))
	assert.Contains(t, buf.String(), "No resources found")
}

func TestConsoleFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Output: &buf}).FormatReport(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "DRIFTED  6f1c2a7e-4b8d-4c1e-9a57-0d2f3b6e8a11 vpn.wireguard wg0")
	assert.Contains(t, out, "    listenPort [network]: deployed 51821, configured 51820")
	assert.NotContains(t, out, `"listenPort": 51820`, "diff is off")
}

func TestFormatMetrics(t *testing.T) {
	metrics := reconciler.NewReconcilerMetrics()
	metrics.RecordCheck("lan", drift.StatusSynced)
	metrics.RecordCheck("wan", drift.StatusDrifted)
	summary := metrics.GetSummary()

	var table bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{Output: &table}).FormatMetrics(summary))
	assert.Contains(t, table.String(), "drift rate")
	assert.Contains(t, table.String(), "50.0%")
	assert.Contains(t, table.String(), "wan")

	var js bytes.Buffer
	require.NoError(t, NewJSONFormatter(Options{Output: &js}).FormatMetrics(summary))
	assert.Contains(t, js.String(), `"total_checks": 2`)

	var console bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Output: &console}).FormatMetrics(summary))
	assert.Contains(t, console.String(), "checks: 2 (synced 1, drifted 1, errors 0, pending 0)")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"absent", nil, "<absent>"},
		{"string", "10.0.0.1", `"10.0.0.1"`},
		{"number", 1420, "1420"},
		{"object", map[string]any{"b": 1, "a": "<x>"}, `{"a":"<x>","b":1}`},
		{"truncated", []any{"10.0.0.1/32", "10.0.0.2/32", "10.0.0.3/32"}, `["10.0.0.1/32","1...`},
		{"unserializable", make(chan int), "0x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatValue(tt.input, 20)
			if tt.name == "unserializable" {
				assert.Contains(t, got, tt.expected)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"name\": \"test\",\n  \"value\": 42\n}", PrettyJSON(map[string]interface{}{"name": "test", "value": 42}))
	assert.Equal(t, "null", PrettyJSON(nil))
	assert.NotEmpty(t, PrettyJSON(make(chan int)))
}
