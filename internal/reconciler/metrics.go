package reconciler

import (
	"sort"
	"sync"
	"time"

	"driftwatch/internal/drift"
	"driftwatch/pkg/logging"
)

// ReconcilerMetrics tracks drift check outcomes for monitoring.
//
// Metrics are tracked per resource type so that a noisy type (for example a
// VPN tunnel that keeps drifting) stands out from the overall numbers.
type ReconcilerMetrics struct {
	mu sync.RWMutex

	// Per-resource-type metrics
	resourceMetrics map[string]*resourceTypeMetrics

	// Global counters for summary metrics
	totalChecks           int64
	totalSynced           int64
	totalDrifted          int64
	totalErrors           int64
	totalPending          int64
	totalDriftDetected    int64
	totalDriftResolved    int64
	totalFetchFailures    int64
	totalResourcesRemoved int64

	lastFetchFailureAt     time.Time
	lastFetchFailureReason string
}

// resourceTypeMetrics holds check metrics for a specific resource type.
type resourceTypeMetrics struct {
	ResourceType     string
	Checks           int64
	Synced           int64
	Drifted          int64
	Errors           int64
	Pending          int64
	DriftDetected    int64
	DriftResolved    int64
	ResourcesRemoved int64
	LastCheckAt      time.Time
	LastDriftAt      time.Time
	LastErrorAt      time.Time
}

// NewReconcilerMetrics creates a new ReconcilerMetrics instance.
func NewReconcilerMetrics() *ReconcilerMetrics {
	return &ReconcilerMetrics{
		resourceMetrics: make(map[string]*resourceTypeMetrics),
	}
}

// getOrCreateResourceMetrics returns existing metrics for a resource type or creates new ones.
func (m *ReconcilerMetrics) getOrCreateResourceMetrics(resourceType string) *resourceTypeMetrics {
	if metrics, exists := m.resourceMetrics[resourceType]; exists {
		return metrics
	}

	metrics := &resourceTypeMetrics{
		ResourceType: resourceType,
	}
	m.resourceMetrics[resourceType] = metrics
	return metrics
}

// RecordCheck records a completed check and its outcome.
func (m *ReconcilerMetrics) RecordCheck(resourceType string, status drift.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	metrics := m.getOrCreateResourceMetrics(resourceType)
	metrics.Checks++
	metrics.LastCheckAt = now
	m.totalChecks++

	switch status {
	case drift.StatusSynced:
		metrics.Synced++
		m.totalSynced++
	case drift.StatusDrifted:
		metrics.Drifted++
		metrics.LastDriftAt = now
		m.totalDrifted++
	case drift.StatusError:
		metrics.Errors++
		metrics.LastErrorAt = now
		m.totalErrors++
	case drift.StatusPending:
		metrics.Pending++
		m.totalPending++
	}
}

// RecordDriftDetected records a transition into DRIFTED.
func (m *ReconcilerMetrics) RecordDriftDetected(resourceType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreateResourceMetrics(resourceType).DriftDetected++
	m.totalDriftDetected++
}

// RecordDriftResolved records a DRIFTED to SYNCED transition.
func (m *ReconcilerMetrics) RecordDriftResolved(resourceType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreateResourceMetrics(resourceType).DriftResolved++
	m.totalDriftResolved++
}

// RecordResourceRemoved records a resource dropped because the fetcher no
// longer returned it.
func (m *ReconcilerMetrics) RecordResourceRemoved(resourceType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreateResourceMetrics(resourceType).ResourcesRemoved++
	m.totalResourcesRemoved++
}

// RecordFetchFailure records a failed batch fetch.
//
// Repeated failures usually mean the backend holding the router state is
// unreachable, so every failure is logged with the running total.
func (m *ReconcilerMetrics) RecordFetchFailure(batchSize int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFetchFailures++
	m.lastFetchFailureAt = time.Now()
	m.lastFetchFailureReason = reason

	logging.Warn("ReconcilerMetrics", "Fetch failure for batch of %d: %s (failures: %d)",
		batchSize, reason, m.totalFetchFailures)
}

// ReconcilerMetricsSummary provides a summary of drift check metrics.
type ReconcilerMetricsSummary struct {
	TotalChecks            int64                    `json:"total_checks"`
	TotalSynced            int64                    `json:"total_synced"`
	TotalDrifted           int64                    `json:"total_drifted"`
	TotalErrors            int64                    `json:"total_errors"`
	TotalPending           int64                    `json:"total_pending"`
	TotalDriftDetected     int64                    `json:"total_drift_detected"`
	TotalDriftResolved     int64                    `json:"total_drift_resolved"`
	TotalFetchFailures     int64                    `json:"total_fetch_failures"`
	TotalResourcesRemoved  int64                    `json:"total_resources_removed"`
	LastFetchFailureAt     time.Time                `json:"last_fetch_failure_at,omitempty"`
	LastFetchFailureReason string                   `json:"last_fetch_failure_reason,omitempty"`
	PerResourceTypeMetrics []ResourceTypeMetricView `json:"per_resource_type_metrics"`
	DriftRate              float64                  `json:"drift_rate"`
	ErrorRate              float64                  `json:"error_rate"`
}

// ResourceTypeMetricView is a read-only view of resource-type-specific metrics.
type ResourceTypeMetricView struct {
	ResourceType     string    `json:"resource_type"`
	Checks           int64     `json:"checks"`
	Synced           int64     `json:"synced"`
	Drifted          int64     `json:"drifted"`
	Errors           int64     `json:"errors"`
	Pending          int64     `json:"pending"`
	DriftDetected    int64     `json:"drift_detected"`
	DriftResolved    int64     `json:"drift_resolved"`
	ResourcesRemoved int64     `json:"resources_removed"`
	LastCheckAt      time.Time `json:"last_check_at,omitempty"`
	LastDriftAt      time.Time `json:"last_drift_at,omitempty"`
	LastErrorAt      time.Time `json:"last_error_at,omitempty"`
}

func (r *resourceTypeMetrics) view() ResourceTypeMetricView {
	return ResourceTypeMetricView{
		ResourceType:     r.ResourceType,
		Checks:           r.Checks,
		Synced:           r.Synced,
		Drifted:          r.Drifted,
		Errors:           r.Errors,
		Pending:          r.Pending,
		DriftDetected:    r.DriftDetected,
		DriftResolved:    r.DriftResolved,
		ResourcesRemoved: r.ResourcesRemoved,
		LastCheckAt:      r.LastCheckAt,
		LastDriftAt:      r.LastDriftAt,
		LastErrorAt:      r.LastErrorAt,
	}
}

// GetSummary returns a snapshot of all metrics. Rates are relative to the
// number of checks and zero when nothing was checked.
func (m *ReconcilerMetrics) GetSummary() ReconcilerMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := ReconcilerMetricsSummary{
		TotalChecks:            m.totalChecks,
		TotalSynced:            m.totalSynced,
		TotalDrifted:           m.totalDrifted,
		TotalErrors:            m.totalErrors,
		TotalPending:           m.totalPending,
		TotalDriftDetected:     m.totalDriftDetected,
		TotalDriftResolved:     m.totalDriftResolved,
		TotalFetchFailures:     m.totalFetchFailures,
		TotalResourcesRemoved:  m.totalResourcesRemoved,
		LastFetchFailureAt:     m.lastFetchFailureAt,
		LastFetchFailureReason: m.lastFetchFailureReason,
		PerResourceTypeMetrics: make([]ResourceTypeMetricView, 0, len(m.resourceMetrics)),
	}

	for _, metrics := range m.resourceMetrics {
		summary.PerResourceTypeMetrics = append(summary.PerResourceTypeMetrics, metrics.view())
	}
	sort.Slice(summary.PerResourceTypeMetrics, func(i, j int) bool {
		return summary.PerResourceTypeMetrics[i].ResourceType < summary.PerResourceTypeMetrics[j].ResourceType
	})

	if m.totalChecks > 0 {
		summary.DriftRate = float64(m.totalDrifted) / float64(m.totalChecks)
		summary.ErrorRate = float64(m.totalErrors) / float64(m.totalChecks)
	}

	return summary
}

// GetResourceTypeMetrics returns the metrics of one resource type.
func (m *ReconcilerMetrics) GetResourceTypeMetrics(resourceType string) (ResourceTypeMetricView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics, ok := m.resourceMetrics[resourceType]
	if !ok {
		return ResourceTypeMetricView{}, false
	}
	return metrics.view(), true
}

// Reset clears all metrics.
func (m *ReconcilerMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resourceMetrics = make(map[string]*resourceTypeMetrics)
	m.totalChecks, m.totalSynced, m.totalDrifted, m.totalErrors, m.totalPending = 0, 0, 0, 0, 0
	m.totalDriftDetected, m.totalDriftResolved = 0, 0
	m.totalFetchFailures, m.totalResourcesRemoved = 0, 0
	m.lastFetchFailureAt = time.Time{}
	m.lastFetchFailureReason = ""
}

// Global metrics instance for use by schedulers.
// This is initialized lazily and should be accessed via GetReconcilerMetrics().
var (
	globalReconcilerMetrics   *ReconcilerMetrics
	globalReconcilerMetricsMu sync.RWMutex
)

// GetReconcilerMetrics returns the global reconciler metrics instance.
// It creates the instance on first access (lazy initialization).
func GetReconcilerMetrics() *ReconcilerMetrics {
	globalReconcilerMetricsMu.RLock()
	if globalReconcilerMetrics != nil {
		defer globalReconcilerMetricsMu.RUnlock()
		return globalReconcilerMetrics
	}
	globalReconcilerMetricsMu.RUnlock()

	globalReconcilerMetricsMu.Lock()
	defer globalReconcilerMetricsMu.Unlock()

	// Double-check after acquiring write lock
	if globalReconcilerMetrics == nil {
		globalReconcilerMetrics = NewReconcilerMetrics()
	}
	return globalReconcilerMetrics
}
