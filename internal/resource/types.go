// Package resource defines the router resource model shared by the drift
// detector and the reconciliation scheduler, together with a filesystem
// backed store that serves as the scheduler's resource fetcher.
package resource

import "time"

// Resource is one router configuration resource.
//
// Configuration is the desired state as edited by the user. Deployment is
// the router-confirmed applied state and is nil until the resource has been
// applied at least once.
type Resource struct {
	UUID          string           `json:"uuid"`
	Type          string           `json:"type"`
	Name          string           `json:"name,omitempty"`
	Configuration any              `json:"configuration"`
	Deployment    *DeploymentState `json:"deployment,omitempty"`
}

// DeploymentState is the router-confirmed state snapshot of a resource.
type DeploymentState struct {
	// AppliedAt is when the configuration was last applied. Nil means unknown.
	AppliedAt *time.Time `json:"appliedAt,omitempty"`

	// IsInSync is the router's own sync flag as reported by the apply workflow.
	IsInSync bool `json:"isInSync"`

	// GeneratedFields is the applied state, comparable to Configuration.
	GeneratedFields any `json:"generatedFields"`
}

// IsDeployed reports whether the resource has a deployment layer.
func (r Resource) IsDeployed() bool {
	return r.Deployment != nil
}

// DisplayName returns Name, falling back to the UUID.
func (r Resource) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.UUID
}
