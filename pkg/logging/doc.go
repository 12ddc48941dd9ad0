// Package logging provides subsystem-tagged structured logging for driftwatch.
//
// The package wraps Go's standard slog package behind a small set of
// package-level functions so that every component logs the same way:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Scheduler", "Started with %d resources", count)
//	logging.Debug("DriftDetector", "Hash mismatch for %s", uuid)
//	logging.Warn("ResourceStore", "Skipping unreadable file %s", path)
//	logging.Error("Scheduler", err, "Batch fetch failed")
//
// # Output Modes
//
//   - CLI mode (InitForCLI): human readable key=value lines, used by the
//     one-shot commands such as `driftwatch check`.
//   - JSON mode (InitForJSON): one JSON object per line, used when
//     `driftwatch watch` runs as a daemon and logs are shipped elsewhere.
//
// Every entry carries a "subsystem" attribute and, for Error, an "error"
// attribute. Messages below the configured level are dropped before any
// formatting work is done.
//
// # Subsystems
//
//   - Scheduler: reconciliation ticks, batches and transitions
//   - DriftDetector: comparison internals
//   - ResourceStore: resource file access
//   - FilesystemDetector: change notifications from the resource directory
//   - ConfigLoader: configuration loading
//   - CLI: command level messages
//
// # Thread Safety
//
// Logging functions are safe for concurrent use. Init functions are meant to
// be called once during startup, before any goroutine logs.
package logging
