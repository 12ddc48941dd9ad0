package resource

import (
	"fmt"
	"regexp"

	"driftwatch/internal/config"

	"github.com/google/uuid"
)

// typePattern matches dotted lowercase type names such as vpn.wireguard.client.
var typePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*(\.[a-z0-9][a-z0-9_-]*)*$`)

// Validate checks the identity fields of a resource.
func Validate(res Resource) error {
	var errs config.ValidationErrors

	if res.UUID == "" {
		errs.Add("uuid", "is required for resource")
	} else if _, err := uuid.Parse(res.UUID); err != nil {
		errs.Add("uuid", fmt.Sprintf("is not a valid UUID: %v", err), res.UUID)
	}

	if res.Type == "" {
		errs.Add("type", "is required for resource")
	} else if !typePattern.MatchString(res.Type) {
		errs.Add("type", "must be dot-separated lowercase segments, e.g. vpn.wireguard.client", res.Type)
	}

	if errs.HasErrors() {
		return config.FormatValidationError("resource", res.UUID, errs)
	}
	return nil
}
