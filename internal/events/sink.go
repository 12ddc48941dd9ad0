package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"driftwatch/pkg/logging"
)

// Sink receives emitted events.
type Sink interface {
	Emit(event Event) error
}

// LogSink writes events through the application logger. Warning events are
// logged at warn level.
type LogSink struct{}

// Emit implements Sink.
func (LogSink) Emit(event Event) error {
	if event.Type == EventTypeWarning {
		logging.Warn("Events", "%s: %s", event.Reason, event.Message)
	} else {
		logging.Info("Events", "%s: %s", event.Reason, event.Message)
	}
	return nil
}

// JSONLinesSink appends each event as one JSON object per line.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLinesSink{enc: enc}
}

// Emit implements Sink.
func (s *JSONLinesSink) Emit(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(event); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// MultiSink delivers every event to all sinks and joins their errors.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
