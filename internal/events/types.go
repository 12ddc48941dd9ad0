package events

import (
	"time"
)

// EventType represents the severity of an event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

const (
	// ReasonDriftDetected indicates a resource entered the DRIFTED state.
	ReasonDriftDetected EventReason = "DriftDetected"

	// ReasonDriftResolved indicates a drifted resource is back in sync.
	ReasonDriftResolved EventReason = "DriftResolved"

	// ReasonCheckFailed indicates a drift check or its fetch failed.
	ReasonCheckFailed EventReason = "CheckFailed"
)

// AllReasons lists every known event reason.
var AllReasons = []EventReason{ReasonDriftDetected, ReasonDriftResolved, ReasonCheckFailed}

// EventData holds contextual information for event message templating.
type EventData struct {
	// UUID identifies the resource involved in the event.
	UUID string

	// Type is the dotted resource type, e.g. vpn.wireguard.
	Type string

	// Name is the display name of the resource, if known.
	Name string

	// Status is the drift status after the check.
	Status string

	// Fields lists the drifted field paths.
	Fields []string

	// Categories counts drifted fields per category. Uncategorized
	// fields are counted under "structural".
	Categories map[string]int

	// IsStale reports whether the deployment is older than the stale threshold.
	IsStale bool

	// Error contains error information for failure events.
	Error string
}

// Event is one emitted drift event.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Reason    EventReason `json:"reason"`
	UUID      string      `json:"uuid"`
	Resource  string      `json:"resourceType,omitempty"`
	Message   string      `json:"message"`
	Fields    []string    `json:"fields,omitempty"`
}

// getEventType returns the appropriate EventType for a given EventReason.
func getEventType(reason EventReason) EventType {
	switch reason {
	case ReasonDriftDetected, ReasonCheckFailed:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}

// ParseReason resolves a reason name as used in configuration files.
func ParseReason(s string) (EventReason, bool) {
	for _, r := range AllReasons {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}
