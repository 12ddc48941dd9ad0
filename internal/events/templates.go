package events

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// defaultTemplates are the built-in message templates per event reason.
var defaultTemplates = map[EventReason]string{
	ReasonDriftDetected: `{{ .Type }} {{ .Name | default .UUID }} drifted: {{ len .Fields }} field{{ if ne (len .Fields) 1 }}s{{ end }} changed ({{ .Fields | join ", " | trunc 120 }}){{ if .IsStale }}, deployment is stale{{ end }}`,
	ReasonDriftResolved: `{{ .Type }} {{ .Name | default .UUID }} is back in sync`,
	ReasonCheckFailed:   `Drift check for {{ .Name | default .UUID }} failed{{ if .Error }}: {{ .Error }}{{ end }}`,
}

// MessageTemplateEngine provides dynamic message generation for events.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	templates map[EventReason]*template.Template
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[EventReason]*template.Template),
	}
	for reason, text := range defaultTemplates {
		engine.templates[reason] = template.Must(parseTemplate(reason, text))
	}
	return engine
}

func parseTemplate(reason EventReason, text string) (*template.Template, error) {
	return template.New(string(reason)).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(text)
}

// SetTemplate replaces the message template for a reason. The previous
// template stays in place when text does not parse.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, text string) error {
	tmpl, err := parseTemplate(reason, text)
	if err != nil {
		return fmt.Errorf("invalid template for %s: %w", reason, err)
	}

	e.mu.Lock()
	e.templates[reason] = tmpl
	e.mu.Unlock()
	return nil
}

// SetTemplates applies overrides keyed by reason name, as found in the
// configuration file. Unknown reasons are rejected.
func (e *MessageTemplateEngine) SetTemplates(overrides map[string]string) error {
	for name, text := range overrides {
		reason, ok := ParseReason(name)
		if !ok {
			return fmt.Errorf("unknown event reason %q", name)
		}
		if err := e.SetTemplate(reason, text); err != nil {
			return err
		}
	}
	return nil
}

// Render generates a message for the given event reason and data. A template
// that fails at execution time falls back to a plain message.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	e.mu.RLock()
	tmpl, exists := e.templates[reason]
	e.mu.RUnlock()

	if exists {
		var sb strings.Builder
		if err := tmpl.Execute(&sb, data); err == nil {
			return sb.String()
		}
	}

	// Fallback for unknown event reasons
	return fmt.Sprintf("Event: %s for %s", string(reason), data.UUID)
}
