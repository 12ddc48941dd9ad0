package drift

import (
	"fmt"
	"sort"
	"time"

	"driftwatch/internal/resource"
	"driftwatch/pkg/logging"
)

const pendingMessage = "Resource has not been deployed yet"

// Detect compares a resource's configuration with its deployment layer.
func Detect(res resource.Resource, opts Options) Result {
	return Compare(res.Configuration, res.Deployment, opts)
}

// Compare compares a configuration with a deployment state. It never
// returns an error; failures are reported as StatusError results.
func Compare(configuration any, deployment *resource.DeploymentState, opts Options) (result Result) {
	now := opts.now()

	defer func() {
		if r := recover(); r != nil {
			logging.Debug("DriftDetector", "Comparison panicked: %v", r)
			result = errorResult(fmt.Errorf("%v", r), now)
		}
	}()

	if deployment == nil {
		// Without a deployment there is nothing to compare. The configuration
		// hash is informational; a hashing failure leaves it empty.
		configHash, _ := Hash(OmitExcludedFields(configuration, opts.ExcludeFields, ""))
		return Result{
			HasDrift:          false,
			Status:            StatusPending,
			DriftedFields:     []DriftedField{},
			ConfigurationHash: configHash,
			DeploymentHash:    "",
			LastChecked:       now,
			ErrorMessage:      pendingMessage,
		}
	}

	isStale := IsDeploymentStale(deployment.AppliedAt, opts.staleThreshold(), now)

	filteredConfig := OmitExcludedFields(configuration, opts.ExcludeFields, "")
	filteredDeploy := OmitExcludedFields(deployment.GeneratedFields, opts.ExcludeFields, "")

	configHash, err := Hash(filteredConfig)
	if err != nil {
		return errorResult(err, now)
	}
	deployHash, err := Hash(filteredDeploy)
	if err != nil {
		return errorResult(err, now)
	}

	// Equal hashes are taken as equal values without an exact diff. A hash
	// collision therefore reports SYNCED.
	if configHash == deployHash {
		return Result{
			HasDrift:          false,
			Status:            StatusSynced,
			DriftedFields:     []DriftedField{},
			ConfigurationHash: configHash,
			DeploymentHash:    deployHash,
			LastChecked:       now,
			IsStale:           isStale,
		}
	}

	fields, err := FindDriftedFields(filteredConfig, filteredDeploy, opts, "")
	if err != nil {
		return errorResult(err, now)
	}

	status := StatusSynced
	if len(fields) > 0 {
		status = StatusDrifted
	}

	return Result{
		HasDrift:          len(fields) > 0,
		Status:            status,
		DriftedFields:     fields,
		ConfigurationHash: configHash,
		DeploymentHash:    deployHash,
		LastChecked:       now,
		IsStale:           isStale,
	}
}

func errorResult(err error, now time.Time) Result {
	return Result{
		HasDrift:          false,
		Status:            StatusError,
		DriftedFields:     []DriftedField{},
		ConfigurationHash: "",
		DeploymentHash:    "",
		LastChecked:       now,
		ErrorMessage:      err.Error(),
	}
}

// HasQuickDrift filters both layers and compares their hashes only. Values
// that cannot be hashed count as drift.
func HasQuickDrift(configuration, generatedFields any, excludeFields []string) bool {
	configHash, err := Hash(OmitExcludedFields(configuration, excludeFields, ""))
	if err != nil {
		return true
	}
	deployHash, err := Hash(OmitExcludedFields(generatedFields, excludeFields, ""))
	if err != nil {
		return true
	}
	return configHash != deployHash
}

// IsDeploymentStale reports whether appliedAt is older than threshold.
// An unknown apply time is always stale.
func IsDeploymentStale(appliedAt *time.Time, threshold time.Duration, now time.Time) bool {
	if appliedAt == nil || appliedAt.IsZero() {
		return true
	}
	return now.Sub(*appliedAt) > threshold
}

// FindDriftedFields lists the leaf-level differences between config and
// deploy. Excluded paths are skipped. The returned slice is never nil.
func FindDriftedFields(config, deploy any, opts Options, pathPrefix string) ([]DriftedField, error) {
	fields := []DriftedField{}
	if err := findDriftedFields(config, deploy, opts, pathPrefix, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func findDriftedFields(config, deploy any, opts Options, prefix string, out *[]DriftedField) error {
	path := prefix
	if path == "" {
		path = "root"
	}

	configMissing, deployMissing := isMissing(config), isMissing(deploy)
	if configMissing || deployMissing {
		if configMissing && deployMissing {
			return nil
		}
		if !ShouldExcludeField(path, opts.ExcludeFields...) {
			*out = append(*out, DriftedField{Path: path, ConfigValue: config, DeployValue: deploy})
		}
		return nil
	}

	configArr, configIsArr := asArray(config)
	deployArr, deployIsArr := asArray(deploy)
	switch {
	case configIsArr && deployIsArr:
		if len(configArr) != len(deployArr) {
			*out = append(*out, categorized(path, config, deploy))
			return nil
		}
		if !opts.DeepCompare {
			return nil
		}
		for i := range configArr {
			if err := findDriftedFields(configArr[i], deployArr[i], opts, indexPath(prefix, i), out); err != nil {
				return err
			}
		}
		return nil
	case configIsArr || deployIsArr:
		*out = append(*out, categorized(path, config, deploy))
		return nil
	}

	configObj, configIsObj := asObject(config)
	deployObj, deployIsObj := asObject(deploy)
	if configIsObj && deployIsObj {
		for _, key := range unionKeys(configObj, deployObj) {
			keyPath := joinPath(prefix, key)
			if ShouldExcludeField(keyPath, opts.ExcludeFields...) {
				continue
			}

			configValue, deployValue := configObj[key], deployObj[key]
			if opts.DeepCompare && isContainer(configValue) && isContainer(deployValue) {
				if err := findDriftedFields(configValue, deployValue, opts, keyPath, out); err != nil {
					return err
				}
				continue
			}

			equal, err := jsonEqual(configValue, deployValue)
			if err != nil {
				return fmt.Errorf("failed to compare %s: %w", keyPath, err)
			}
			if !equal {
				*out = append(*out, categorized(keyPath, configValue, deployValue))
			}
		}
		return nil
	}

	equal, err := jsonEqual(config, deploy)
	if err != nil {
		return fmt.Errorf("failed to compare %s: %w", path, err)
	}
	if !equal {
		*out = append(*out, categorized(path, config, deploy))
	}
	return nil
}

func categorized(path string, config, deploy any) DriftedField {
	return DriftedField{
		Path:        path,
		ConfigValue: config,
		DeployValue: deploy,
		Category:    CategorizeField(path),
	}
}

// isContainer reports a non-nil object or array.
func isContainer(v any) bool {
	if isMissing(v) {
		return false
	}
	if _, ok := asObject(v); ok {
		return true
	}
	_, ok := asArray(v)
	return ok
}

// jsonEqual compares the canonical JSON encodings of a and b.
func jsonEqual(a, b any) (bool, error) {
	encodedA, err := canonicalJSON(a)
	if err != nil {
		return false, err
	}
	encodedB, err := canonicalJSON(b)
	if err != nil {
		return false, err
	}
	return encodedA == encodedB, nil
}

func unionKeys(a, b map[string]any) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
