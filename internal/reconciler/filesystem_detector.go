package reconciler

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"driftwatch/internal/resource"
	"driftwatch/pkg/logging"
)

// DefaultDebounceInterval is how long the detector waits for further
// writes to the same file before emitting a change.
const DefaultDebounceInterval = 500 * time.Millisecond

// FilesystemDetector watches the resource store directory.
//
// It uses fsnotify to watch for changes in resource files and generates
// change events when files are created, modified, or deleted. Editors and
// the store itself often write a file several times in a row, so events are
// debounced per UUID.
type FilesystemDetector struct {
	mu sync.RWMutex

	// dir is the resource store directory
	dir string

	// watcher is the fsnotify watcher instance
	watcher *fsnotify.Watcher

	// debounceInterval is how long to wait for additional changes
	debounceInterval time.Duration

	// pendingEvents tracks pending debounced events by UUID
	pendingEvents map[string]*debounceEntry

	// stopCh signals shutdown
	stopCh chan struct{}

	// running indicates if the detector is active
	running bool
}

// debounceEntry tracks a pending event for debouncing.
type debounceEntry struct {
	event ChangeEvent
	timer *time.Timer
}

// NewFilesystemDetector creates a new filesystem change detector.
func NewFilesystemDetector(dir string, debounceInterval time.Duration) *FilesystemDetector {
	if debounceInterval == 0 {
		debounceInterval = DefaultDebounceInterval
	}

	return &FilesystemDetector{
		dir:              dir,
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[string]*debounceEntry),
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching the directory, creating it when missing.
func (d *FilesystemDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		d.mu.Unlock()
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if err := watcher.Add(d.dir); err != nil {
		_ = watcher.Close()
		d.mu.Unlock()
		return err
	}

	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	go d.processEvents(ctx, watcher, stopCh, changes)

	logging.Info("FilesystemDetector", "Started watching %s for resource changes", d.dir)
	return nil
}

// processEvents handles filesystem events and generates change events.
func (d *FilesystemDetector) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh <-chan struct{}, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			d.cleanupPendingEvents()
			return

		case <-stopCh:
			d.cleanupPendingEvents()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				logging.Error("FilesystemDetector", err, "Filesystem watcher error")
				continue
			}
			logging.Warn("FilesystemDetector", "Event queue overflowed, some changes may be picked up on the next scheduled check")
		}
	}
}

// handleFsEvent processes a single filesystem event.
func (d *FilesystemDetector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	uuid, ok := resource.UUIDFromPath(event.Name)
	if !ok {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Has(fsnotify.Create):
		operation = OperationCreate
	case event.Has(fsnotify.Write):
		operation = OperationUpdate
	case event.Has(fsnotify.Remove):
		operation = OperationDelete
	case event.Has(fsnotify.Rename):
		// Rename is treated as delete (the new name will trigger a create)
		operation = OperationDelete
	default:
		return
	}

	d.debounceEvent(ChangeEvent{
		UUID:      uuid,
		Operation: operation,
		Timestamp: time.Now(),
		FilePath:  event.Name,
	}, changes)
}

// debounceEvent implements event debouncing to handle rapid successive changes.
func (d *FilesystemDetector) debounceEvent(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := event.UUID

	if entry, ok := d.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.event.Operation, event.Operation)
	}

	timer := time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		entry, ok := d.pendingEvents[key]
		if ok {
			delete(d.pendingEvents, key)
		}
		d.mu.Unlock()

		if ok {
			select {
			case changes <- entry.event:
				logging.Debug("FilesystemDetector", "Emitted change event: %s %s",
					entry.event.Operation, entry.event.UUID)
			default:
				logging.Warn("FilesystemDetector", "Change event channel full, dropping event for %s",
					entry.event.UUID)
			}
		}
	})

	d.pendingEvents[key] = &debounceEntry{
		event: event,
		timer: timer,
	}
}

// mergeOperations merges two operations into a single logical operation.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	if old == OperationCreate {
		if new == OperationDelete {
			return OperationDelete
		}
		// Create + Update = Create
		return OperationCreate
	}
	return new
}

// cleanupPendingEvents cancels all pending debounce timers.
func (d *FilesystemDetector) cleanupPendingEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.pendingEvents {
		entry.timer.Stop()
	}
	d.pendingEvents = make(map[string]*debounceEntry)
}

// Stop gracefully stops the filesystem detector.
func (d *FilesystemDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false
	close(d.stopCh)

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			logging.Error("FilesystemDetector", err, "Error closing filesystem watcher")
		}
		d.watcher = nil
	}

	logging.Info("FilesystemDetector", "Stopped filesystem detector")
	return nil
}

// IsRunning returns whether the detector is watching.
func (d *FilesystemDetector) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
