package drift

import "time"

// Status is the drift state of a resource.
type Status string

const (
	// StatusSynced means configuration and deployment match.
	StatusSynced Status = "SYNCED"

	// StatusDrifted means at least one field differs.
	StatusDrifted Status = "DRIFTED"

	// StatusError means the comparison itself failed.
	StatusError Status = "ERROR"

	// StatusChecking means a check is in progress. The comparator never
	// returns it; UI collaborators use it while a check is outstanding.
	StatusChecking Status = "CHECKING"

	// StatusPending means the resource has no deployment layer yet.
	StatusPending Status = "PENDING"
)

// AllStatuses lists every Status in display order.
var AllStatuses = []Status{StatusSynced, StatusDrifted, StatusError, StatusChecking, StatusPending}

// Category groups drifted fields by what they affect.
type Category string

const (
	CategoryNone     Category = ""
	CategoryNetwork  Category = "network"
	CategorySecurity Category = "security"
	CategoryGeneral  Category = "general"
)

// DriftedField is one leaf-level divergence between the two layers.
type DriftedField struct {
	// Path uses dots for object nesting and [i] for array indices.
	Path        string   `json:"path" yaml:"path"`
	ConfigValue any      `json:"configValue" yaml:"configValue"`
	DeployValue any      `json:"deployValue" yaml:"deployValue"`
	Category    Category `json:"category,omitempty" yaml:"category,omitempty"`
}

// Result is the outcome of one comparison. Results are never mutated after
// they are returned; a new check produces a new Result.
type Result struct {
	HasDrift          bool           `json:"hasDrift" yaml:"hasDrift"`
	Status            Status         `json:"status" yaml:"status"`
	DriftedFields     []DriftedField `json:"driftedFields" yaml:"driftedFields"`
	ConfigurationHash string         `json:"configurationHash" yaml:"configurationHash"`
	DeploymentHash    string         `json:"deploymentHash" yaml:"deploymentHash"`
	LastChecked       time.Time      `json:"lastChecked" yaml:"lastChecked"`
	ErrorMessage      string         `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	IsStale           bool           `json:"isStale,omitempty" yaml:"isStale,omitempty"`
}

// DefaultStaleThreshold is the deployment age after which IsStale is set.
const DefaultStaleThreshold = 30 * time.Minute

// Options tunes a comparison. Start from DefaultOptions; the zero value
// disables deep comparison.
type Options struct {
	// ExcludeFields extends DefaultExcludedFields with field names or full paths.
	ExcludeFields []string

	// DeepCompare recurses into nested objects and equal-length arrays.
	// When false, nested values are compared as whole JSON documents and
	// equal-length arrays are treated as equal.
	DeepCompare bool

	// StaleThreshold defaults to DefaultStaleThreshold when zero.
	StaleThreshold time.Duration

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// DefaultOptions returns deep comparison with the default stale threshold.
func DefaultOptions() Options {
	return Options{
		DeepCompare:    true,
		StaleThreshold: DefaultStaleThreshold,
	}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) staleThreshold() time.Duration {
	if o.StaleThreshold <= 0 {
		return DefaultStaleThreshold
	}
	return o.StaleThreshold
}
