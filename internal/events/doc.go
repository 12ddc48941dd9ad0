// Package events turns scheduler callbacks into drift events with
// human-readable messages.
//
// Each event has a reason (DriftDetected, DriftResolved, CheckFailed), a
// Normal or Warning type, and a message rendered from a text/template with
// the Sprig function library. Templates can be overridden per reason:
//
//	engine := events.NewMessageTemplateEngine()
//	err := engine.SetTemplate(events.ReasonDriftDetected,
//		`{{ .Name | default .UUID }} drifted on {{ .Fields | join ", " }}`)
//
// Events are delivered to a Sink. LogSink writes them through pkg/logging,
// JSONLinesSink appends one JSON object per line to a writer, and MultiSink
// fans out to several sinks.
//
//	generator := events.NewEventGenerator(events.MultiSink{
//		events.LogSink{},
//		events.NewJSONLinesSink(file),
//	})
//	generator.DriftDetected(uuid, resourceType, name, result)
package events
