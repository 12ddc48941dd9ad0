package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigurationError describes a configuration file that could not be used.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	ErrorType   string   `json:"errorType"`   // parse, io
	Message     string   `json:"message"`     // Human-readable error message
	Details     string   `json:"details"`     // Underlying error text
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	if ce.Details != "" {
		return fmt.Sprintf("%s: %s: %s", filepath.Base(ce.FilePath), ce.Message, ce.Details)
	}
	return fmt.Sprintf("%s: %s", filepath.Base(ce.FilePath), ce.Message)
}

// DetailedError returns a multi-line message including suggestions.
func (ce ConfigurationError) DetailedError() string {
	parts := []string{
		fmt.Sprintf("Configuration error in %s", ce.FilePath),
		fmt.Sprintf("  Type: %s", ce.ErrorType),
		fmt.Sprintf("  Error: %s", ce.Message),
	}
	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}
	return strings.Join(parts, "\n")
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(filePath, errorType, message, details string, suggestions []string) ConfigurationError {
	return ConfigurationError{
		FilePath:    filePath,
		ErrorType:   errorType,
		Message:     message,
		Details:     details,
		Suggestions: suggestions,
	}
}
