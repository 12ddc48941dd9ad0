package reconciler

import (
	"testing"

	"driftwatch/internal/drift"
)

func TestReconcilerMetrics_NewInstance(t *testing.T) {
	metrics := NewReconcilerMetrics()
	if metrics == nil {
		t.Fatal("expected non-nil metrics instance")
	}
	if metrics.resourceMetrics == nil {
		t.Error("expected resourceMetrics map to be initialized")
	}
}

func TestReconcilerMetrics_RecordCheck(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordCheck("lan", drift.StatusSynced)
	metrics.RecordCheck("lan", drift.StatusDrifted)
	metrics.RecordCheck("wan", drift.StatusError)
	metrics.RecordCheck("wan", drift.StatusPending)

	summary := metrics.GetSummary()
	if summary.TotalChecks != 4 {
		t.Errorf("expected TotalChecks=4, got %d", summary.TotalChecks)
	}
	if summary.TotalSynced != 1 || summary.TotalDrifted != 1 || summary.TotalErrors != 1 || summary.TotalPending != 1 {
		t.Errorf("unexpected outcome totals: %+v", summary)
	}
	if summary.DriftRate != 0.25 {
		t.Errorf("expected DriftRate=0.25, got %f", summary.DriftRate)
	}
	if summary.ErrorRate != 0.25 {
		t.Errorf("expected ErrorRate=0.25, got %f", summary.ErrorRate)
	}

	lan, ok := metrics.GetResourceTypeMetrics("lan")
	if !ok {
		t.Fatal("expected lan metrics to exist")
	}
	if lan.Checks != 2 || lan.Drifted != 1 {
		t.Errorf("unexpected lan metrics: %+v", lan)
	}
	if lan.LastDriftAt.IsZero() {
		t.Error("expected LastDriftAt to be set")
	}
}

func TestReconcilerMetrics_Transitions(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordDriftDetected("vpn.wireguard")
	metrics.RecordDriftDetected("vpn.wireguard")
	metrics.RecordDriftResolved("vpn.wireguard")
	metrics.RecordResourceRemoved("lan")

	summary := metrics.GetSummary()
	if summary.TotalDriftDetected != 2 {
		t.Errorf("expected TotalDriftDetected=2, got %d", summary.TotalDriftDetected)
	}
	if summary.TotalDriftResolved != 1 {
		t.Errorf("expected TotalDriftResolved=1, got %d", summary.TotalDriftResolved)
	}
	if summary.TotalResourcesRemoved != 1 {
		t.Errorf("expected TotalResourcesRemoved=1, got %d", summary.TotalResourcesRemoved)
	}

	// Per-type views are sorted by type
	if len(summary.PerResourceTypeMetrics) != 2 {
		t.Fatalf("expected 2 resource types, got %d", len(summary.PerResourceTypeMetrics))
	}
	if summary.PerResourceTypeMetrics[0].ResourceType != "lan" {
		t.Errorf("expected lan first, got %s", summary.PerResourceTypeMetrics[0].ResourceType)
	}
}

func TestReconcilerMetrics_FetchFailure(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordFetchFailure(3, "connection refused")

	summary := metrics.GetSummary()
	if summary.TotalFetchFailures != 1 {
		t.Errorf("expected TotalFetchFailures=1, got %d", summary.TotalFetchFailures)
	}
	if summary.LastFetchFailureReason != "connection refused" {
		t.Errorf("unexpected reason %q", summary.LastFetchFailureReason)
	}
	if summary.LastFetchFailureAt.IsZero() {
		t.Error("expected LastFetchFailureAt to be set")
	}
}

func TestReconcilerMetrics_NoChecks(t *testing.T) {
	summary := NewReconcilerMetrics().GetSummary()
	if summary.DriftRate != 0 || summary.ErrorRate != 0 {
		t.Errorf("expected zero rates, got %f/%f", summary.DriftRate, summary.ErrorRate)
	}
	if summary.PerResourceTypeMetrics == nil {
		t.Error("expected empty, non-nil per-type metrics")
	}
}

func TestReconcilerMetrics_Reset(t *testing.T) {
	metrics := NewReconcilerMetrics()
	metrics.RecordCheck("lan", drift.StatusDrifted)
	metrics.RecordFetchFailure(1, "timeout")

	metrics.Reset()

	summary := metrics.GetSummary()
	if summary.TotalChecks != 0 || summary.TotalFetchFailures != 0 {
		t.Errorf("expected cleared totals, got %+v", summary)
	}
	if _, ok := metrics.GetResourceTypeMetrics("lan"); ok {
		t.Error("expected lan metrics to be cleared")
	}
}

func TestGetReconcilerMetrics_Singleton(t *testing.T) {
	first := GetReconcilerMetrics()
	second := GetReconcilerMetrics()
	if first != second {
		t.Error("expected the same global metrics instance")
	}
}
