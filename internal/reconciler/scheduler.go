package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"driftwatch/internal/drift"
	"driftwatch/internal/resource"
	"driftwatch/pkg/logging"
)

// detectDrift is the comparator used for every check.
var detectDrift = drift.Detect

// Scheduler drives periodic drift checks for a registry of resources.
//
// A single shared tick selects the resources that are due, fetches them in
// one batch and compares each against its deployment layer. Priorities only
// decide which resources are due on a tick; the tick cadence is fixed.
type Scheduler struct {
	mu sync.RWMutex

	config Config

	clock   clock.WithTicker
	metrics *ReconcilerMetrics

	// resources maps UUIDs to registry entries
	resources map[string]*ScheduledResource

	// lastBatch is when the last batch started
	lastBatch time.Time

	// ctx is the scheduler's context while running
	ctx context.Context

	// cancelFunc cancels the scheduler's context
	cancelFunc context.CancelFunc

	ticker clock.Ticker

	// wg tracks the tick loop
	wg sync.WaitGroup

	// running indicates if the scheduler is active
	running bool
}

// NewScheduler creates a scheduler. It fails when no ResourceFetcher is set.
func NewScheduler(config Config) (*Scheduler, error) {
	if config.ResourceFetcher == nil {
		return nil, errors.New("resource fetcher is required")
	}

	// Apply defaults
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.MinBatchInterval <= 0 {
		config.MinBatchInterval = DefaultMinBatchInterval
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.CompareOptions == nil {
		opts := drift.DefaultOptions()
		config.CompareOptions = &opts
	}
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Metrics == nil {
		config.Metrics = GetReconcilerMetrics()
	}

	return &Scheduler{
		config:    config,
		clock:     config.Clock,
		metrics:   config.Metrics,
		resources: make(map[string]*ScheduledResource),
	}, nil
}

// Register adds a resource or replaces the existing entry for its UUID.
// The resource is first due one priority interval from now.
func (s *Scheduler) Register(res resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(res)
}

// RegisterMany registers every resource in order.
func (s *Scheduler) RegisterMany(resources []resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range resources {
		s.registerLocked(res)
	}
}

func (s *Scheduler) registerLocked(res resource.Resource) {
	if res.UUID == "" {
		logging.Warn("Scheduler", "Ignoring resource %q without uuid", res.Name)
		return
	}

	priority := GetResourcePriority(res.Type)
	s.resources[res.UUID] = &ScheduledResource{
		UUID:      res.UUID,
		Type:      res.Type,
		Name:      res.Name,
		Priority:  priority,
		NextCheck: s.clock.Now().Add(priority.Interval()),
	}
	logging.Debug("Scheduler", "Registered %s (%s, priority %s)", res.UUID, res.Type, priority)
}

// Unregister removes a resource. Batches already in flight are not affected.
func (s *Scheduler) Unregister(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, uuid)
}

// Clear removes every resource.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = make(map[string]*ScheduledResource)
}

// ScheduleImmediateCheck makes a registered resource due on the next tick.
// Unknown UUIDs are ignored.
func (s *Scheduler) ScheduleImmediateCheck(uuid string) {
	s.ScheduleImmediateCheckMany([]string{uuid})
}

// ScheduleImmediateCheckMany is ScheduleImmediateCheck for several UUIDs.
func (s *Scheduler) ScheduleImmediateCheckMany(uuids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uuid := range uuids {
		if entry, ok := s.resources[uuid]; ok {
			entry.NextCheck = time.Time{}
		}
	}
}

// HandleChange reacts to a change of a resource file. Unknown resources are
// registered through load before being scheduled. Deletions only schedule a
// check; the next fetch drops the resource from the registry.
func (s *Scheduler) HandleChange(event ChangeEvent, load func(uuid string) (resource.Resource, error)) {
	if event.Operation != OperationDelete {
		if _, known := s.GetScheduledResource(event.UUID); !known && load != nil {
			res, err := load(event.UUID)
			if err != nil {
				logging.Warn("Scheduler", "Failed to load changed resource %s: %v", event.UUID, err)
				return
			}
			s.Register(res)
		}
	}

	logging.Debug("Scheduler", "Change %s for %s, checking on next tick", event.Operation, event.UUID)
	s.ScheduleImmediateCheck(event.UUID)
}

// Start runs one tick synchronously, then ticks every TickInterval until
// Stop is called or ctx is done. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	s.ticker = s.clock.NewTicker(s.config.TickInterval)
	s.running = true
	runCtx, ticker := s.ctx, s.ticker
	s.mu.Unlock()

	s.tick(runCtx)

	s.wg.Add(1)
	go s.loop(runCtx, ticker)

	logging.Info("Scheduler", "Started with %d resources, ticking every %v", s.ResourceCount(), s.config.TickInterval)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, ticker clock.Ticker) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

// Stop halts the tick loop and cancels in-flight fetches. It must not be
// called from a callback.
//
// Stop does not wait for an in-flight batch to be applied: the fetch
// context is cancelled, and a fetch that fails after the cancellation is
// dropped silently. No OnError fires and the batch keeps its NextCheck. A
// fetcher that ignores the context and returns resources still has them
// applied. Stop returns once the loop goroutine has exited.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	s.wg.Wait()

	logging.Info("Scheduler", "Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// tick selects the due resources and processes them as one batch.
func (s *Scheduler) tick(ctx context.Context) {
	if s.config.IsOnline != nil && !s.config.IsOnline() {
		logging.Debug("Scheduler", "Offline, skipping tick")
		return
	}

	now := s.clock.Now()

	s.mu.Lock()
	if !s.lastBatch.IsZero() && now.Sub(s.lastBatch) < s.config.MinBatchInterval {
		s.mu.Unlock()
		logging.Debug("Scheduler", "Last batch ran %v ago, skipping tick", now.Sub(s.lastBatch))
		return
	}
	batch := s.dueLocked(now)
	if len(batch) > 0 {
		s.lastBatch = now
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.processBatch(ctx, batch)
}

// dueLocked returns the most overdue entries, at most BatchSize of them.
func (s *Scheduler) dueLocked(now time.Time) []*ScheduledResource {
	var due []*ScheduledResource
	for _, entry := range s.resources {
		if !entry.NextCheck.After(now) {
			due = append(due, entry)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextCheck.Equal(due[j].NextCheck) {
			return due[i].NextCheck.Before(due[j].NextCheck)
		}
		return due[i].UUID < due[j].UUID
	})

	if len(due) > s.config.BatchSize {
		due = due[:s.config.BatchSize]
	}
	return due
}

// processBatch fetches the batch once and checks every entry in order.
func (s *Scheduler) processBatch(ctx context.Context, batch []*ScheduledResource) {
	uuids := make([]string, len(batch))
	for i, entry := range batch {
		uuids[i] = entry.UUID
	}

	logging.Debug("Scheduler", "Checking batch of %d resources", len(batch))

	fetchCtx := ctx
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	fetched, err := s.config.ResourceFetcher(fetchCtx, uuids)
	if err != nil {
		if ctx.Err() != nil {
			logging.Debug("Scheduler", "Fetch cancelled by shutdown: %v", err)
			return
		}
		s.handleFetchFailure(batch, err)
		return
	}

	byUUID := make(map[string]resource.Resource, len(fetched))
	for _, res := range fetched {
		if _, dup := byUUID[res.UUID]; !dup {
			byUUID[res.UUID] = res
		}
	}

	for _, entry := range batch {
		res, ok := byUUID[entry.UUID]
		if !ok {
			s.removeMissing(entry)
			continue
		}
		s.checkEntry(entry, res)
	}
}

func (s *Scheduler) handleFetchFailure(batch []*ScheduledResource, err error) {
	retryAt := s.clock.Now().Add(s.config.RetryDelay)

	s.mu.Lock()
	for _, entry := range batch {
		entry.NextCheck = retryAt
	}
	s.mu.Unlock()

	s.metrics.RecordFetchFailure(len(batch), err.Error())
	logging.Warn("Scheduler", "Failed to fetch %d resources, retrying in %v: %v", len(batch), s.config.RetryDelay, err)

	s.notifyError(batch[0].UUID, fmt.Errorf("failed to fetch resources: %w", err))
}

func (s *Scheduler) removeMissing(entry *ScheduledResource) {
	s.mu.Lock()
	if current, ok := s.resources[entry.UUID]; ok && current == entry {
		delete(s.resources, entry.UUID)
	}
	s.mu.Unlock()

	s.metrics.RecordResourceRemoved(entry.Type)
	logging.Info("Scheduler", "Resource %s no longer exists, unregistered", entry.UUID)
}

// checkEntry compares one fetched resource, stores the result and fires the
// transition callbacks.
func (s *Scheduler) checkEntry(entry *ScheduledResource, res resource.Resource) {
	result, err := s.detect(res)
	now := s.clock.Now()

	s.mu.Lock()
	entry.NextCheck = now.Add(entry.Priority.Interval())
	entry.Name = res.Name
	var previous *drift.Result
	if err == nil {
		previous = entry.LastResult
		entry.LastResult = &result
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.RecordCheck(entry.Type, drift.StatusError)
		logging.Error("Scheduler", err, "Drift check failed for %s", entry.UUID)
		s.notifyError(entry.UUID, err)
		return
	}

	s.metrics.RecordCheck(entry.Type, result.Status)

	switch {
	case result.Status == drift.StatusDrifted && (previous == nil || previous.Status != drift.StatusDrifted):
		s.metrics.RecordDriftDetected(entry.Type)
		logging.Info("Scheduler", "Drift detected for %s (%d fields)", entry.UUID, len(result.DriftedFields))
		s.notifyDrift("OnDriftDetected", s.config.OnDriftDetected, entry.UUID, result)

	case result.Status == drift.StatusSynced && previous != nil && previous.Status == drift.StatusDrifted:
		s.metrics.RecordDriftResolved(entry.Type)
		logging.Info("Scheduler", "Drift resolved for %s", entry.UUID)
		s.notifyDrift("OnDriftResolved", s.config.OnDriftResolved, entry.UUID, result)
	}
}

// detect runs the comparator, turning a panic into an error.
func (s *Scheduler) detect(res resource.Resource) (result drift.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("drift check panicked: %v", r)
		}
	}()
	return detectDrift(res, *s.config.CompareOptions), nil
}

func (s *Scheduler) notifyDrift(name string, callback DriftCallback, uuid string, result drift.Result) {
	if callback == nil {
		return
	}
	defer s.recoverCallback(name, uuid)
	callback(uuid, result)
}

func (s *Scheduler) notifyError(uuid string, err error) {
	if s.config.OnError == nil {
		return
	}
	defer s.recoverCallback("OnError", uuid)
	s.config.OnError(uuid, err)
}

func (s *Scheduler) recoverCallback(name, uuid string) {
	if r := recover(); r != nil {
		logging.Error("Scheduler", fmt.Errorf("%v", r), "%s callback panicked for %s", name, uuid)
	}
}

// GetAllDriftStatus returns the last result of every resource. Resources
// that were never checked map to nil.
func (s *Scheduler) GetAllDriftStatus() map[string]*drift.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[string]*drift.Result, len(s.resources))
	for uuid, entry := range s.resources {
		if entry.LastResult == nil {
			statuses[uuid] = nil
			continue
		}
		result := *entry.LastResult
		statuses[uuid] = &result
	}
	return statuses
}

// GetDriftedResources returns the sorted UUIDs whose last result is DRIFTED.
func (s *Scheduler) GetDriftedResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var drifted []string
	for uuid, entry := range s.resources {
		if entry.LastResult != nil && entry.LastResult.Status == drift.StatusDrifted {
			drifted = append(drifted, uuid)
		}
	}
	sort.Strings(drifted)
	return drifted
}

// GetDriftCounts counts resources per status. Resources without a result
// count as PENDING. Every status is present in the map.
func (s *Scheduler) GetDriftCounts() map[drift.Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[drift.Status]int, len(drift.AllStatuses))
	for _, status := range drift.AllStatuses {
		counts[status] = 0
	}
	for _, entry := range s.resources {
		if entry.LastResult == nil {
			counts[drift.StatusPending]++
			continue
		}
		counts[entry.LastResult.Status]++
	}
	return counts
}

// ResourceCount returns the number of registered resources.
func (s *Scheduler) ResourceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// GetScheduledResource returns a copy of the registry entry for uuid.
func (s *Scheduler) GetScheduledResource(uuid string) (ScheduledResource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.resources[uuid]
	if !ok {
		return ScheduledResource{}, false
	}
	return *entry, true
}

// Metrics returns the metrics the scheduler records into.
func (s *Scheduler) Metrics() *ReconcilerMetrics {
	return s.metrics
}
