package config

import (
	"fmt"
	"strings"
	"time"

	"driftwatch/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

func validatePositiveDuration(errs *ValidationErrors, field string, d time.Duration) {
	if d <= 0 {
		errs.Add(field, "must be greater than zero", d.String())
	}
}

// Validate checks the configuration and reports all problems at once.
func (c Config) Validate() error {
	var errs ValidationErrors

	if c.Scheduler.BatchSize <= 0 {
		errs.Add("scheduler.batchSize", "must be greater than zero", c.Scheduler.BatchSize)
	}
	if c.Scheduler.MinBatchInterval < 0 {
		errs.Add("scheduler.minBatchInterval", "must not be negative", c.Scheduler.MinBatchInterval.String())
	}
	validatePositiveDuration(&errs, "scheduler.tickInterval", c.Scheduler.TickInterval)
	validatePositiveDuration(&errs, "scheduler.retryDelay", c.Scheduler.RetryDelay)
	if c.Scheduler.FetchTimeout < 0 {
		errs.Add("scheduler.fetchTimeout", "must not be negative", c.Scheduler.FetchTimeout.String())
	}
	validatePositiveDuration(&errs, "drift.staleThreshold", c.Drift.StaleThreshold)

	for i, field := range c.Drift.ExcludeFields {
		if strings.TrimSpace(field) == "" {
			errs.Add(fmt.Sprintf("drift.excludeFields[%d]", i), "must not be empty")
		}
	}

	if err := ValidateRequired("resources.dir", c.Resources.Dir, "configuration"); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", "must be one of: debug, info, warn, error", c.Logging.Level)
	}
	if err := ValidateOneOf("logging.format", c.Logging.Format, []string{LogFormatText, LogFormatJSON}); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	for reason, tmpl := range c.Events.Templates {
		if strings.TrimSpace(tmpl) == "" {
			errs.Add("events.templates."+reason, "must not be empty")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// FormatValidationError creates a consistent validation error message
func FormatValidationError(entityType, entityName string, err error) error {
	if err == nil {
		return nil
	}

	if entityName != "" {
		return fmt.Errorf("validation failed for %s '%s': %w", entityType, entityName, err)
	}
	return fmt.Errorf("validation failed for %s: %w", entityType, err)
}
