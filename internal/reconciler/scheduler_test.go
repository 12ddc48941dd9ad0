package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"driftwatch/internal/drift"
	"driftwatch/internal/resource"
)

var testStart = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// fakeFetcher serves resources from memory and records every call.
type fakeFetcher struct {
	mu        sync.Mutex
	resources map[string]resource.Resource
	err       error
	calls     [][]string
}

func newFakeFetcher(resources ...resource.Resource) *fakeFetcher {
	f := &fakeFetcher{resources: make(map[string]resource.Resource)}
	for _, res := range resources {
		f.resources[res.UUID] = res
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, uuids []string) ([]resource.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), uuids...))
	if f.err != nil {
		return nil, f.err
	}
	var out []resource.Resource
	for _, id := range uuids {
		if res, ok := f.resources[id]; ok {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeFetcher) set(res resource.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[res.UUID] = res
}

func (f *fakeFetcher) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.resources, id)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// callbackRecorder collects callback invocations in order.
type callbackRecorder struct {
	mu       sync.Mutex
	detected []string
	resolved []string
	errors   map[string]error
}

func (r *callbackRecorder) wire(config *Config) {
	r.errors = make(map[string]error)
	config.OnDriftDetected = func(uuid string, _ drift.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.detected = append(r.detected, uuid)
	}
	config.OnDriftResolved = func(uuid string, _ drift.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.resolved = append(r.resolved, uuid)
	}
	config.OnError = func(uuid string, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errors[uuid] = err
	}
}

func newTestScheduler(t *testing.T, fetcher *fakeFetcher, mutate func(*Config)) (*Scheduler, *testingclock.FakeClock) {
	t.Helper()

	fakeClock := testingclock.NewFakeClock(testStart)
	config := Config{
		ResourceFetcher: fetcher.Fetch,
		Clock:           fakeClock,
		Metrics:         NewReconcilerMetrics(),
	}
	if mutate != nil {
		mutate(&config)
	}

	scheduler, err := NewScheduler(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = scheduler.Stop() })
	return scheduler, fakeClock
}

// routerResource builds a deployed resource whose address either matches
// the configuration or not.
func routerResource(id, typ string, drifted bool) resource.Resource {
	applied := testStart
	deployed := "192.168.1.1"
	if drifted {
		deployed = "192.168.1.254"
	}
	return resource.Resource{
		UUID:          id,
		Type:          typ,
		Name:          id,
		Configuration: map[string]any{"address": "192.168.1.1", "proto": "static"},
		Deployment: &resource.DeploymentState{
			AppliedAt:       &applied,
			IsInSync:        !drifted,
			GeneratedFields: map[string]any{"address": deployed, "proto": "static", "uptime": 42},
		},
	}
}

func TestNewScheduler_RequiresFetcher(t *testing.T) {
	_, err := NewScheduler(Config{})
	assert.Error(t, err)
}

func TestNewScheduler_Defaults(t *testing.T) {
	scheduler, err := NewScheduler(Config{ResourceFetcher: newFakeFetcher().Fetch})
	require.NoError(t, err)

	assert.Equal(t, DefaultBatchSize, scheduler.config.BatchSize)
	assert.Equal(t, DefaultMinBatchInterval, scheduler.config.MinBatchInterval)
	assert.Equal(t, DefaultTickInterval, scheduler.config.TickInterval)
	assert.Equal(t, DefaultRetryDelay, scheduler.config.RetryDelay)
	require.NotNil(t, scheduler.config.CompareOptions)
	assert.True(t, scheduler.config.CompareOptions.DeepCompare)
	assert.Same(t, GetReconcilerMetrics(), scheduler.Metrics())
}

func TestScheduler_Register(t *testing.T) {
	scheduler, _ := newTestScheduler(t, newFakeFetcher(), nil)

	scheduler.Register(routerResource("wan-1", "wan", false))
	scheduler.RegisterMany([]resource.Resource{
		routerResource("lan-1", "lan.bridge", false),
		routerResource("ntp-1", "ntp", false),
		routerResource("x-1", "custom.thing", false),
	})
	assert.Equal(t, 4, scheduler.ResourceCount())

	tests := []struct {
		uuid     string
		priority Priority
	}{
		{"wan-1", PriorityHigh},
		{"lan-1", PriorityNormal},
		{"ntp-1", PriorityLow},
		{"x-1", PriorityNormal},
	}
	for _, tt := range tests {
		entry, ok := scheduler.GetScheduledResource(tt.uuid)
		require.True(t, ok, tt.uuid)
		assert.Equal(t, tt.priority, entry.Priority, tt.uuid)
		assert.Equal(t, tt.uuid, entry.Name)
		assert.Equal(t, testStart.Add(tt.priority.Interval()), entry.NextCheck, tt.uuid)
		assert.Nil(t, entry.LastResult)
	}

	// Registering again overwrites the entry
	scheduler.Register(routerResource("x-1", "vpn.wireguard", false))
	entry, _ := scheduler.GetScheduledResource("x-1")
	assert.Equal(t, PriorityHigh, entry.Priority)
	assert.Equal(t, 4, scheduler.ResourceCount())

	// Resources without a uuid are ignored
	scheduler.Register(resource.Resource{Type: "lan"})
	assert.Equal(t, 4, scheduler.ResourceCount())
}

func TestScheduler_UnregisterAndClear(t *testing.T) {
	scheduler, _ := newTestScheduler(t, newFakeFetcher(), nil)
	scheduler.RegisterMany([]resource.Resource{
		routerResource("a", "lan", false),
		routerResource("b", "lan", false),
	})

	scheduler.Unregister("a")
	scheduler.Unregister("unknown")
	assert.Equal(t, 1, scheduler.ResourceCount())

	scheduler.Clear()
	assert.Equal(t, 0, scheduler.ResourceCount())
}

func TestScheduler_ScheduleImmediateCheck(t *testing.T) {
	scheduler, _ := newTestScheduler(t, newFakeFetcher(), nil)
	scheduler.RegisterMany([]resource.Resource{
		routerResource("a", "lan", false),
		routerResource("b", "lan", false),
	})

	scheduler.ScheduleImmediateCheck("a")
	scheduler.ScheduleImmediateCheckMany([]string{"b", "unknown"})

	for _, id := range []string{"a", "b"} {
		entry, _ := scheduler.GetScheduledResource(id)
		assert.True(t, entry.NextCheck.IsZero(), id)
	}
	_, ok := scheduler.GetScheduledResource("unknown")
	assert.False(t, ok)
}

func TestScheduler_TickWithNothingDue(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("a", "lan", false))
	scheduler, _ := newTestScheduler(t, fetcher, nil)
	scheduler.Register(routerResource("a", "lan", false))

	scheduler.tick(context.Background())
	assert.Equal(t, 0, fetcher.callCount())
}

func TestScheduler_DriftDetectedAndResolved(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("lan-1", "lan", true))
	var recorder callbackRecorder
	scheduler, fakeClock := newTestScheduler(t, fetcher, recorder.wire)
	ctx := context.Background()

	scheduler.Register(routerResource("lan-1", "lan", true))
	scheduler.ScheduleImmediateCheck("lan-1")
	scheduler.tick(ctx)

	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, []string{"lan-1"}, recorder.detected)
	assert.Empty(t, recorder.resolved)

	entry, _ := scheduler.GetScheduledResource("lan-1")
	require.NotNil(t, entry.LastResult)
	assert.Equal(t, drift.StatusDrifted, entry.LastResult.Status)
	assert.Equal(t, testStart.Add(PriorityNormal.Interval()), entry.NextCheck)
	assert.Equal(t, []string{"lan-1"}, scheduler.GetDriftedResources())

	// Still drifted: no second notification
	fakeClock.Step(2 * time.Second)
	scheduler.ScheduleImmediateCheck("lan-1")
	scheduler.tick(ctx)
	assert.Equal(t, 2, fetcher.callCount())
	assert.Len(t, recorder.detected, 1)

	// Fixed upstream
	fetcher.set(routerResource("lan-1", "lan", false))
	fakeClock.Step(2 * time.Second)
	scheduler.ScheduleImmediateCheck("lan-1")
	scheduler.tick(ctx)
	assert.Equal(t, []string{"lan-1"}, recorder.resolved)
	assert.Empty(t, scheduler.GetDriftedResources())

	metrics := scheduler.Metrics().GetSummary()
	assert.Equal(t, int64(3), metrics.TotalChecks)
	assert.Equal(t, int64(1), metrics.TotalDriftDetected)
	assert.Equal(t, int64(1), metrics.TotalDriftResolved)
}

func TestScheduler_PendingToSyncedIsSilent(t *testing.T) {
	pending := routerResource("lan-1", "lan", false)
	pending.Deployment = nil
	fetcher := newFakeFetcher(pending)
	var recorder callbackRecorder
	scheduler, fakeClock := newTestScheduler(t, fetcher, recorder.wire)
	ctx := context.Background()

	scheduler.Register(pending)
	scheduler.ScheduleImmediateCheck("lan-1")
	scheduler.tick(ctx)

	entry, _ := scheduler.GetScheduledResource("lan-1")
	require.NotNil(t, entry.LastResult)
	assert.Equal(t, drift.StatusPending, entry.LastResult.Status)

	fetcher.set(routerResource("lan-1", "lan", false))
	fakeClock.Step(2 * time.Second)
	scheduler.ScheduleImmediateCheck("lan-1")
	scheduler.tick(ctx)

	entry, _ = scheduler.GetScheduledResource("lan-1")
	assert.Equal(t, drift.StatusSynced, entry.LastResult.Status)
	assert.Empty(t, recorder.detected)
	assert.Empty(t, recorder.resolved)
}

func TestScheduler_OfflineSkipsTick(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("a", "lan", false))
	online := false
	scheduler, _ := newTestScheduler(t, fetcher, func(c *Config) {
		c.IsOnline = func() bool { return online }
	})

	scheduler.Register(routerResource("a", "lan", false))
	scheduler.ScheduleImmediateCheck("a")

	scheduler.tick(context.Background())
	assert.Equal(t, 0, fetcher.callCount())

	online = true
	scheduler.tick(context.Background())
	assert.Equal(t, 1, fetcher.callCount())
}

func TestScheduler_MinBatchInterval(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("a", "lan", false))
	scheduler, fakeClock := newTestScheduler(t, fetcher, nil)
	ctx := context.Background()

	scheduler.Register(routerResource("a", "lan", false))
	scheduler.ScheduleImmediateCheck("a")
	scheduler.tick(ctx)
	require.Equal(t, 1, fetcher.callCount())

	scheduler.ScheduleImmediateCheck("a")
	fakeClock.Step(500 * time.Millisecond)
	scheduler.tick(ctx)
	assert.Equal(t, 1, fetcher.callCount())

	fakeClock.Step(500 * time.Millisecond)
	scheduler.tick(ctx)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestScheduler_BatchSizeAndOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	scheduler, fakeClock := newTestScheduler(t, fetcher, func(c *Config) {
		c.BatchSize = 3
	})
	ctx := context.Background()

	// Registered one second apart, so earlier resources are more overdue
	for i := 0; i < 5; i++ {
		res := routerResource(fmt.Sprintf("lan-%d", i), "lan", false)
		fetcher.set(res)
		scheduler.Register(res)
		fakeClock.Step(time.Second)
	}
	fakeClock.Step(PriorityNormal.Interval())

	scheduler.tick(ctx)
	assert.Equal(t, []string{"lan-0", "lan-1", "lan-2"}, fetcher.lastCall())

	fakeClock.Step(time.Second)
	scheduler.tick(ctx)
	assert.Equal(t, []string{"lan-3", "lan-4"}, fetcher.lastCall())
}

func TestScheduler_FetchFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.err = errors.New("router unreachable")
	var recorder callbackRecorder
	scheduler, _ := newTestScheduler(t, fetcher, recorder.wire)

	scheduler.RegisterMany([]resource.Resource{
		routerResource("a", "wan", false),
		routerResource("b", "ntp", false),
	})
	scheduler.ScheduleImmediateCheckMany([]string{"a", "b"})
	scheduler.tick(context.Background())

	for _, id := range []string{"a", "b"} {
		entry, _ := scheduler.GetScheduledResource(id)
		assert.Equal(t, testStart.Add(DefaultRetryDelay), entry.NextCheck, id)
		assert.Nil(t, entry.LastResult, id)
	}

	require.Len(t, recorder.errors, 1)
	require.Contains(t, recorder.errors, "a")
	assert.ErrorContains(t, recorder.errors["a"], "router unreachable")
	assert.Equal(t, int64(1), scheduler.Metrics().GetSummary().TotalFetchFailures)
}

func TestScheduler_FetchCancelledByStop(t *testing.T) {
	var recorder callbackRecorder
	fakeClock := testingclock.NewFakeClock(testStart)
	config := Config{
		ResourceFetcher: func(ctx context.Context, uuids []string) ([]resource.Resource, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		Clock:   fakeClock,
		Metrics: NewReconcilerMetrics(),
	}
	recorder.wire(&config)
	scheduler, err := NewScheduler(config)
	require.NoError(t, err)

	scheduler.Register(routerResource("a", "lan", false))
	scheduler.ScheduleImmediateCheck("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scheduler.tick(ctx)

	assert.Empty(t, recorder.errors)
	entry, _ := scheduler.GetScheduledResource("a")
	assert.True(t, entry.NextCheck.IsZero())
}

func TestScheduler_StopCancelsInFlightFetch(t *testing.T) {
	var recorder callbackRecorder
	fakeClock := testingclock.NewFakeClock(testStart)
	entered := make(chan struct{}, 1)
	config := Config{
		ResourceFetcher: func(ctx context.Context, uuids []string) ([]resource.Resource, error) {
			entered <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		},
		TickInterval: time.Minute,
		Clock:        fakeClock,
		Metrics:      NewReconcilerMetrics(),
	}
	recorder.wire(&config)
	scheduler, err := NewScheduler(config)
	require.NoError(t, err)

	scheduler.Register(routerResource("a", "lan", false))
	require.NoError(t, scheduler.Start(context.Background()))

	scheduler.ScheduleImmediateCheck("a")
	assert.Eventually(t, func() bool {
		fakeClock.Step(time.Minute)
		select {
		case <-entered:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the in-flight fetch")
	}

	assert.Empty(t, recorder.errors)
	entry, ok := scheduler.GetScheduledResource("a")
	require.True(t, ok)
	assert.True(t, entry.NextCheck.IsZero())
	assert.Nil(t, entry.LastResult)
	assert.Equal(t, int64(0), scheduler.Metrics().GetSummary().TotalFetchFailures)
}

func TestScheduler_FetchTimeout(t *testing.T) {
	var recorder callbackRecorder
	config := Config{
		ResourceFetcher: func(ctx context.Context, uuids []string) ([]resource.Resource, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		FetchTimeout: 10 * time.Millisecond,
		Clock:        testingclock.NewFakeClock(testStart),
		Metrics:      NewReconcilerMetrics(),
	}
	recorder.wire(&config)
	scheduler, err := NewScheduler(config)
	require.NoError(t, err)

	scheduler.Register(routerResource("a", "lan", false))
	scheduler.ScheduleImmediateCheck("a")
	scheduler.tick(context.Background())

	require.Contains(t, recorder.errors, "a")
	assert.ErrorIs(t, recorder.errors["a"], context.DeadlineExceeded)
}

func TestScheduler_MissingResourceIsUnregistered(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("a", "lan", false))
	scheduler, _ := newTestScheduler(t, fetcher, nil)

	scheduler.RegisterMany([]resource.Resource{
		routerResource("a", "lan", false),
		routerResource("gone", "lan", false),
	})
	scheduler.ScheduleImmediateCheckMany([]string{"a", "gone"})
	scheduler.tick(context.Background())

	assert.Equal(t, 1, scheduler.ResourceCount())
	_, ok := scheduler.GetScheduledResource("gone")
	assert.False(t, ok)
	assert.Equal(t, int64(1), scheduler.Metrics().GetSummary().TotalResourcesRemoved)
}

func TestScheduler_ComparisonPanic(t *testing.T) {
	original := detectDrift
	t.Cleanup(func() { detectDrift = original })
	detectDrift = func(res resource.Resource, opts drift.Options) drift.Result {
		if res.UUID == "bad" {
			panic("boom")
		}
		return original(res, opts)
	}

	fetcher := newFakeFetcher(routerResource("bad", "wan", false), routerResource("good", "lan", true))
	var recorder callbackRecorder
	scheduler, _ := newTestScheduler(t, fetcher, recorder.wire)

	scheduler.RegisterMany([]resource.Resource{
		routerResource("bad", "wan", false),
		routerResource("good", "lan", true),
	})
	scheduler.ScheduleImmediateCheckMany([]string{"bad", "good"})
	scheduler.tick(context.Background())

	require.Contains(t, recorder.errors, "bad")
	assert.ErrorContains(t, recorder.errors["bad"], "boom")

	bad, _ := scheduler.GetScheduledResource("bad")
	assert.Equal(t, testStart.Add(PriorityHigh.Interval()), bad.NextCheck)
	assert.Nil(t, bad.LastResult)

	// The rest of the batch is still processed
	assert.Equal(t, []string{"good"}, recorder.detected)
}

func TestScheduler_CallbackPanicIsRecovered(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("a", "lan", true), routerResource("b", "lan", true))
	var seen []string
	scheduler, _ := newTestScheduler(t, fetcher, func(c *Config) {
		c.OnDriftDetected = func(uuid string, _ drift.Result) {
			seen = append(seen, uuid)
			panic("consumer bug")
		}
	})

	scheduler.RegisterMany([]resource.Resource{
		routerResource("a", "lan", true),
		routerResource("b", "lan", true),
	})
	scheduler.ScheduleImmediateCheckMany([]string{"a", "b"})

	assert.NotPanics(t, func() { scheduler.tick(context.Background()) })
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []string{"a", "b"}, scheduler.GetDriftedResources())
}

func TestScheduler_Queries(t *testing.T) {
	errored := routerResource("err", "lan", false)
	errored.Configuration = map[string]any{"weight": func() {}}
	fetcher := newFakeFetcher(
		routerResource("synced", "lan", false),
		routerResource("drifted", "lan", true),
		errored,
	)
	scheduler, _ := newTestScheduler(t, fetcher, nil)

	scheduler.RegisterMany([]resource.Resource{
		routerResource("synced", "lan", false),
		routerResource("drifted", "lan", true),
		errored,
		routerResource("unchecked", "lan", false),
	})
	scheduler.ScheduleImmediateCheckMany([]string{"synced", "drifted", "err"})
	scheduler.tick(context.Background())

	counts := scheduler.GetDriftCounts()
	assert.Equal(t, map[drift.Status]int{
		drift.StatusSynced:   1,
		drift.StatusDrifted:  1,
		drift.StatusError:    1,
		drift.StatusChecking: 0,
		drift.StatusPending:  1,
	}, counts)

	statuses := scheduler.GetAllDriftStatus()
	require.Len(t, statuses, 4)
	assert.Nil(t, statuses["unchecked"])
	require.NotNil(t, statuses["drifted"])
	assert.Equal(t, drift.StatusDrifted, statuses["drifted"].Status)
	assert.Equal(t, []string{"drifted"}, scheduler.GetDriftedResources())
}

func TestScheduler_HandleChange(t *testing.T) {
	scheduler, _ := newTestScheduler(t, newFakeFetcher(), nil)
	scheduler.Register(routerResource("known", "lan", false))

	loaded := 0
	load := func(id string) (resource.Resource, error) {
		loaded++
		if id == "broken" {
			return resource.Resource{}, errors.New("parse error")
		}
		return routerResource(id, "wan", false), nil
	}

	scheduler.HandleChange(ChangeEvent{UUID: "known", Operation: OperationUpdate}, load)
	entry, _ := scheduler.GetScheduledResource("known")
	assert.True(t, entry.NextCheck.IsZero())
	assert.Equal(t, 0, loaded)

	scheduler.HandleChange(ChangeEvent{UUID: "new", Operation: OperationCreate}, load)
	entry, ok := scheduler.GetScheduledResource("new")
	require.True(t, ok)
	assert.Equal(t, PriorityHigh, entry.Priority)
	assert.True(t, entry.NextCheck.IsZero())

	scheduler.HandleChange(ChangeEvent{UUID: "broken", Operation: OperationCreate}, load)
	_, ok = scheduler.GetScheduledResource("broken")
	assert.False(t, ok)

	// Deletions are left to the next fetch
	scheduler.HandleChange(ChangeEvent{UUID: "new", Operation: OperationDelete}, load)
	assert.Equal(t, 2, scheduler.ResourceCount())
}

func TestScheduler_StartStop(t *testing.T) {
	fetcher := newFakeFetcher(routerResource("a", "lan", false))
	scheduler, fakeClock := newTestScheduler(t, fetcher, nil)
	scheduler.Register(routerResource("a", "lan", false))
	scheduler.ScheduleImmediateCheck("a")

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	// The first tick runs synchronously
	assert.Equal(t, 1, fetcher.callCount())

	// Starting again is a no-op
	require.NoError(t, scheduler.Start(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())

	// The loop ticks on the shared interval
	fakeClock.Step(PriorityNormal.Interval())
	assert.Eventually(t, func() bool { return fetcher.callCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())
	require.NoError(t, scheduler.Stop())

	fakeClock.Step(PriorityNormal.Interval())
	assert.Never(t, func() bool { return fetcher.callCount() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}
