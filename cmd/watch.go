package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/events"
	"driftwatch/internal/formatting"
	"driftwatch/internal/reconciler"
	"driftwatch/internal/resource"
	"driftwatch/pkg/logging"
)

type watchOptions struct {
	output       string
	noFileEvents bool
	debounce     time.Duration
	checkOnStart bool
}

func newWatchCmd(global *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously check resources for drift",
		Long: `Register every resource with the reconciliation scheduler and keep
checking them until interrupted. Connectivity-critical resources such as
WAN interfaces and VPN tunnels are checked every 5 minutes, general
resources every 15 minutes and diagnostics every hour.

Edits in the resources directory trigger an immediate re-check of the
affected resource. On exit a metrics summary is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatTable), "Format of the exit summary: table, console, json or yaml")
	cmd.Flags().BoolVar(&opts.noFileEvents, "no-file-events", false, "Do not watch the resources directory for changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", reconciler.DefaultDebounceInterval, "Debounce interval for file change events")
	cmd.Flags().BoolVar(&opts.checkOnStart, "check-on-start", true, "Check every resource once right after startup")

	return cmd
}

func runWatch(cmd *cobra.Command, global *globalOptions, opts *watchOptions) error {
	format, err := formatting.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	cfg, err := loadRuntime(cmd, global)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := resource.NewStore(cfg.Resources.Dir)
	resources, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	sink, closeSink, err := eventSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	generator := events.NewEventGenerator(sink)
	if err := generator.Templates().SetTemplates(cfg.Events.Templates); err != nil {
		return fmt.Errorf("invalid events configuration: %w", err)
	}

	// The callbacks run on the scheduler goroutine after its lock is
	// released, so looking up the entry is safe.
	var scheduler *reconciler.Scheduler
	describe := func(uuid string) (string, string) {
		entry, ok := scheduler.GetScheduledResource(uuid)
		if !ok {
			return "", ""
		}
		return entry.Type, entry.Name
	}

	compare := compareOptions(cfg)
	scheduler, err = reconciler.InitializeScheduler(reconciler.Config{
		ResourceFetcher: store.Fetch,
		OnDriftDetected: func(uuid string, result drift.Result) {
			resourceType, name := describe(uuid)
			generator.DriftDetected(uuid, resourceType, name, result)
		},
		OnDriftResolved: func(uuid string, result drift.Result) {
			resourceType, name := describe(uuid)
			generator.DriftResolved(uuid, resourceType, name, result)
		},
		OnError: func(uuid string, err error) {
			resourceType, name := describe(uuid)
			generator.CheckFailed(uuid, resourceType, name, err)
		},
		BatchSize:        cfg.Scheduler.BatchSize,
		MinBatchInterval: cfg.Scheduler.MinBatchInterval,
		TickInterval:     cfg.Scheduler.TickInterval,
		RetryDelay:       cfg.Scheduler.RetryDelay,
		FetchTimeout:     cfg.Scheduler.FetchTimeout,
		CompareOptions:   &compare,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	defer reconciler.DestroyScheduler()

	scheduler.RegisterMany(resources)
	if opts.checkOnStart {
		uuids := make([]string, 0, len(resources))
		for _, res := range resources {
			uuids = append(uuids, res.UUID)
		}
		scheduler.ScheduleImmediateCheckMany(uuids)
	}

	if !opts.noFileEvents {
		detector := reconciler.NewFilesystemDetector(store.Dir(), opts.debounce)
		changes := make(chan reconciler.ChangeEvent, 100)
		if err := detector.Start(ctx, changes); err != nil {
			return fmt.Errorf("failed to watch %s: %w", store.Dir(), err)
		}
		defer detector.Stop()
		go forwardChanges(ctx, scheduler, store, changes)
	}

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	logging.Info("CLI", "Watching %d resources in %s", scheduler.ResourceCount(), store.Dir())
	notifySystemd(daemon.SdNotifyReady)

	<-ctx.Done()

	notifySystemd(daemon.SdNotifyStopping)
	logging.Info("CLI", "Shutting down")
	if err := scheduler.Stop(); err != nil {
		logging.Warn("CLI", "Failed to stop scheduler: %v", err)
	}

	formatter := formatting.NewFormatter(formatting.Options{
		Format: format,
		Color:  useColor(cmd),
		Output: cmd.OutOrStdout(),
	})
	return formatter.FormatMetrics(scheduler.Metrics().GetSummary())
}

// forwardChanges hands file events to the scheduler until ctx is done.
func forwardChanges(ctx context.Context, scheduler *reconciler.Scheduler, store *resource.Store, changes <-chan reconciler.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-changes:
			scheduler.HandleChange(event, store.Load)
		}
	}
}

// eventSink logs events and, when configured, appends them to the events
// file. The returned function closes the file.
func eventSink(cfg config.Config) (events.Sink, func(), error) {
	if cfg.Events.File == "" {
		return events.LogSink{}, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Events.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create directory for %s: %w", cfg.Events.File, err)
	}
	file, err := os.OpenFile(cfg.Events.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open events file: %w", err)
	}
	logging.Info("CLI", "Appending drift events to %s", cfg.Events.File)

	closeFile := func() {
		if err := file.Close(); err != nil {
			logging.Warn("CLI", "Failed to close events file: %v", err)
		}
	}
	return events.MultiSink{events.LogSink{}, events.NewJSONLinesSink(file)}, closeFile, nil
}

// notifySystemd reports state to the service manager when running under
// systemd. Outside systemd this is a no-op.
func notifySystemd(state string) {
	if _, ok := os.LookupEnv("NOTIFY_SOCKET"); !ok {
		return
	}
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("CLI", "Failed to notify systemd: %v", err)
		return
	}
	if sent {
		logging.Debug("CLI", "Notified systemd: %s", state)
	}
}
