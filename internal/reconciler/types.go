package reconciler

import (
	"context"
	"time"

	"k8s.io/utils/clock"

	"driftwatch/internal/drift"
	"driftwatch/internal/resource"
)

// Priority is the re-check interval of a resource. Higher priority means a
// shorter interval.
type Priority time.Duration

const (
	// PriorityHigh is used for resources whose drift cuts connectivity (WAN, VPN).
	PriorityHigh Priority = Priority(5 * time.Minute)

	// PriorityNormal is used for most resources and for unknown types.
	PriorityNormal Priority = Priority(15 * time.Minute)

	// PriorityLow is used for housekeeping resources (logging, NTP, scripts).
	PriorityLow Priority = Priority(60 * time.Minute)
)

// Interval returns the priority as a duration.
func (p Priority) Interval() time.Duration {
	return time.Duration(p)
}

// String returns the tier name, or the interval for non-standard values.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return time.Duration(p).String()
	}
}

// ScheduledResource is one registry entry.
type ScheduledResource struct {
	UUID     string
	Type     string
	Name     string
	Priority Priority

	// NextCheck is when the resource becomes due. The zero time means
	// immediately.
	NextCheck time.Time

	// LastResult is nil until the first check completes.
	LastResult *drift.Result
}

// ResourceFetcher loads fresh state for a batch of resources. It may omit
// UUIDs it cannot find; those resources are treated as deleted. Extra
// resources in the reply are ignored.
type ResourceFetcher func(ctx context.Context, uuids []string) ([]resource.Resource, error)

// DriftCallback receives status transitions of a resource.
type DriftCallback func(uuid string, result drift.Result)

// ErrorCallback receives check and fetch failures.
type ErrorCallback func(uuid string, err error)

// Config configures a Scheduler. Only ResourceFetcher is required.
type Config struct {
	ResourceFetcher ResourceFetcher

	// OnDriftDetected fires when a resource enters DRIFTED.
	OnDriftDetected DriftCallback

	// OnDriftResolved fires on a DRIFTED to SYNCED transition only.
	OnDriftResolved DriftCallback

	// OnError fires when a comparison panics, and once per failed fetch
	// with the first UUID of the batch.
	OnError ErrorCallback

	// IsOnline is polled at each tick. Ticks are skipped while it returns
	// false. Nil means always online.
	IsOnline func() bool

	// BatchSize caps the number of resources checked per tick.
	BatchSize int

	// MinBatchInterval is the minimum time between two batches.
	MinBatchInterval time.Duration

	// TickInterval is the cadence of the shared tick.
	TickInterval time.Duration

	// RetryDelay postpones every resource of a batch whose fetch failed.
	RetryDelay time.Duration

	// FetchTimeout bounds each ResourceFetcher call. Zero means no timeout.
	FetchTimeout time.Duration

	// CompareOptions are passed to the drift comparator. Nil means
	// drift.DefaultOptions().
	CompareOptions *drift.Options

	// Clock defaults to the real clock.
	Clock clock.WithTicker

	// Metrics defaults to the global ReconcilerMetrics.
	Metrics *ReconcilerMetrics
}

const (
	DefaultBatchSize        = 10
	DefaultMinBatchInterval = time.Second
	DefaultTickInterval     = 60 * time.Second
	DefaultRetryDelay       = 30 * time.Second
)

// ChangeEvent represents a detected change of a resource file.
type ChangeEvent struct {
	// UUID is derived from the file name.
	UUID string

	// Operation describes what kind of change occurred.
	Operation ChangeOperation

	// Timestamp is when the change was detected.
	Timestamp time.Time

	// FilePath is the path to the file that changed.
	FilePath string
}

// ChangeOperation represents the type of change detected.
type ChangeOperation string

const (
	// OperationCreate indicates a new resource file was created.
	OperationCreate ChangeOperation = "Create"

	// OperationUpdate indicates an existing resource file was modified.
	OperationUpdate ChangeOperation = "Update"

	// OperationDelete indicates a resource file was removed or renamed away.
	OperationDelete ChangeOperation = "Delete"
)
