package events

import (
	"time"

	"k8s.io/utils/clock"

	"driftwatch/internal/drift"
	"driftwatch/pkg/logging"
)

// EventGenerator renders drift events and hands them to a sink.
type EventGenerator struct {
	sink      Sink
	templates *MessageTemplateEngine
	clock     clock.PassiveClock
}

// NewEventGenerator creates a new EventGenerator delivering to sink.
func NewEventGenerator(sink Sink) *EventGenerator {
	return &EventGenerator{
		sink:      sink,
		templates: NewMessageTemplateEngine(),
		clock:     clock.RealClock{},
	}
}

// Templates returns the generator's template engine for customization.
func (g *EventGenerator) Templates() *MessageTemplateEngine {
	return g.templates
}

// DriftDetected emits a warning event for a resource that entered DRIFTED.
func (g *EventGenerator) DriftDetected(uuid, resourceType, name string, result drift.Result) {
	g.emit(ReasonDriftDetected, resultData(uuid, resourceType, name, result))
}

// DriftResolved emits a normal event for a resource that is back in sync.
func (g *EventGenerator) DriftResolved(uuid, resourceType, name string, result drift.Result) {
	g.emit(ReasonDriftResolved, resultData(uuid, resourceType, name, result))
}

// CheckFailed emits a warning event for a failed check or fetch.
func (g *EventGenerator) CheckFailed(uuid, resourceType, name string, err error) {
	data := EventData{UUID: uuid, Type: resourceType, Name: name, Status: string(drift.StatusError)}
	if err != nil {
		data.Error = err.Error()
	}
	g.emit(ReasonCheckFailed, data)
}

func (g *EventGenerator) emit(reason EventReason, data EventData) {
	event := Event{
		Timestamp: g.clock.Now().UTC().Truncate(time.Millisecond),
		Type:      getEventType(reason),
		Reason:    reason,
		UUID:      data.UUID,
		Resource:  data.Type,
		Message:   g.templates.Render(reason, data),
		Fields:    data.Fields,
	}

	logging.Debug("Events", "Generating event: reason=%s, uuid=%s, type=%s", reason, data.UUID, event.Type)

	if err := g.sink.Emit(event); err != nil {
		logging.Error("Events", err, "Failed to deliver %s event for %s", reason, data.UUID)
	}
}

func resultData(uuid, resourceType, name string, result drift.Result) EventData {
	data := EventData{
		UUID:       uuid,
		Type:       resourceType,
		Name:       name,
		Status:     string(result.Status),
		Fields:     make([]string, 0, len(result.DriftedFields)),
		Categories: make(map[string]int),
		IsStale:    result.IsStale,
		Error:      result.ErrorMessage,
	}
	for _, field := range result.DriftedFields {
		data.Fields = append(data.Fields, field.Path)
		category := string(field.Category)
		if field.Category == drift.CategoryNone {
			category = "structural"
		}
		data.Categories[category]++
	}
	return data
}
