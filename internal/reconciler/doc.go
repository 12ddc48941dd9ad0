// Package reconciler schedules periodic drift checks of router resources.
//
// # Overview
//
// A Scheduler keeps a registry of resources, each with a priority derived
// from its type. One shared tick, every 60 seconds by default, selects the
// resources whose next check is due, fetches their current state through a
// caller-supplied ResourceFetcher and runs the drift comparator on each.
// Transitions into DRIFTED and from DRIFTED back to SYNCED are reported
// through callbacks.
//
// # Priorities
//
//   - HIGH (5 minutes): wan, vpn, wireguard, openvpn
//   - NORMAL (15 minutes): lan, dhcp, firewall, wifi, wireless, interfaces,
//     routing, dns, and any unknown type
//   - LOW (60 minutes): logging, scripts, system, ntp
//
// Types are matched by their longest dotted prefix, so "vpn.wireguard.peer"
// is HIGH.
//
// # Usage
//
//	scheduler, err := reconciler.NewScheduler(reconciler.Config{
//	    ResourceFetcher: store.Fetch,
//	    OnDriftDetected: func(uuid string, result drift.Result) { ... },
//	})
//	if err != nil {
//	    return err
//	}
//	scheduler.RegisterMany(resources)
//	if err := scheduler.Start(ctx); err != nil {
//	    return err
//	}
//	defer scheduler.Stop()
//
// A FilesystemDetector can feed file changes into Scheduler.HandleChange so
// edited resources are checked on the next tick instead of waiting for
// their priority interval.
//
// # Failure handling
//
// Comparison failures become ERROR results. A failed fetch postpones the
// whole batch by RetryDelay and reports one error for the first resource
// of the batch. Panics in callbacks are recovered and logged.
package reconciler
