package reconciler

import (
	"sync"

	"driftwatch/pkg/logging"
)

// Process-wide scheduler, managed through InitializeScheduler and
// DestroyScheduler.
var (
	defaultScheduler   *Scheduler
	defaultSchedulerMu sync.RWMutex
)

// InitializeScheduler creates the default scheduler, replacing (and
// stopping) any previous one.
func InitializeScheduler(config Config) (*Scheduler, error) {
	scheduler, err := NewScheduler(config)
	if err != nil {
		return nil, err
	}

	defaultSchedulerMu.Lock()
	previous := defaultScheduler
	defaultScheduler = scheduler
	defaultSchedulerMu.Unlock()

	if previous != nil {
		logging.Warn("Scheduler", "Replacing an existing default scheduler")
		_ = previous.Stop()
	}
	return scheduler, nil
}

// GetDefaultScheduler returns the default scheduler. It panics when
// InitializeScheduler has not been called, which is a wiring mistake.
func GetDefaultScheduler() *Scheduler {
	defaultSchedulerMu.RLock()
	defer defaultSchedulerMu.RUnlock()

	if defaultScheduler == nil {
		panic("reconciler: default scheduler not initialized, call InitializeScheduler first")
	}
	return defaultScheduler
}

// DestroyScheduler stops and clears the default scheduler, if any.
func DestroyScheduler() {
	defaultSchedulerMu.Lock()
	scheduler := defaultScheduler
	defaultScheduler = nil
	defaultSchedulerMu.Unlock()

	if scheduler == nil {
		return
	}
	_ = scheduler.Stop()
	scheduler.Clear()
}
