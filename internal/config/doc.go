// Package config provides configuration management for driftwatch.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/driftwatch; commands accept --config-path to point elsewhere.
//
// # Configuration Directory
//
// The directory may contain:
//   - config.yaml: the main configuration file (optional, defaults apply)
//   - .env: optional KEY=VALUE pairs exported before overrides are read
//   - resources/: the default resource store (see internal/resource)
//
// # Layering
//
// Values are resolved in this order, later layers winning:
//  1. Built-in defaults (GetDefaultConfig)
//  2. config.yaml
//  3. DRIFTWATCH_* environment variables, including those set by .env
//
// Variables already present in the process environment are never replaced by
// the .env file.
//
// # Example config.yaml
//
//	scheduler:
//	  batchSize: 10
//	  minBatchInterval: 1s
//	  tickInterval: 60s
//	  retryDelay: 30s
//	drift:
//	  deepCompare: true
//	  staleThreshold: 30m
//	  excludeFields:
//	    - peers.endpoint
//	resources:
//	  dir: /var/lib/driftwatch/resources
//	logging:
//	  level: info
//	  format: text
//
// # Validation
//
// Validate reports every problem at once as ValidationErrors so that users can
// fix a configuration file in a single pass.
package config
