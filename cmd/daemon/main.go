// Package main provides the entry point for the daemon process supervisor.
// daemon is a PID1-capable process supervisor designed to run in containers
// and on Linux/BSD systems: it starts a declared set of long-lived
// services honoring their start-ordering, reaps every descendant process
// (subreaping orphaned zombies), applies per-service restart policy, and
// coordinates an orderly shutdown on SIGTERM/SIGINT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/config"
	"github.com/kodflow/daemon/internal/health"
	"github.com/kodflow/daemon/internal/kernel"
	"github.com/kodflow/daemon/internal/reaper"
	"github.com/kodflow/daemon/internal/repo"
	"github.com/kodflow/daemon/internal/signals"
	"github.com/kodflow/daemon/internal/statusview"
	"github.com/kodflow/daemon/internal/supervisor"
)

var version = "dev"

func main() {
	servicesDir := flag.String("services-dir", "", "directory of *.toml service definitions (mutually exclusive with -cmd)")
	adHocCmd := flag.String("cmd", "", "run a single ad-hoc command instead of loading a services directory")
	logDir := flag.String("log-dir", "", "directory to capture supervised services' stdout/stderr into (empty: inherit the daemon's own)")
	tui := flag.Bool("tui", false, "show a live terminal status dashboard while supervising")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("daemon %s\n", version)
		return
	}

	code, err := run(*servicesDir, *adHocCmd, *logDir, *tui)
	if err != nil {
		fmt.Fprintf(os.Stderr, "daemon: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run loads the declared service set, wires the supervision engine
// together (bus, per-component repository replicas, signal dispatcher,
// reaper, healthcheck monitor, runtime), and blocks until every service
// has reached a terminal state. It returns the process's exit status
// (spec.md §6).
func run(servicesDir, adHocCmd, logDir string, tui bool) (int, error) {
	services, opts, err := loadServices(servicesDir, adHocCmd)
	if err != nil {
		return 0, err
	}

	if err := kernel.Default.Signals.SetSubreaper(); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: warning: failed to become a child subreaper: %v\n", err)
	}

	b := bus.New()
	go b.Run()

	// internal/repo's one-replica-per-component model: every consumer of
	// the bus (runtime, reaper's PID lookup, health monitor) folds the
	// same total-ordered event stream into its own private replica.
	runtimeEP := b.AddSubscriber()
	runtimeRepo := repo.New(services, runtimeEP)

	reaperLookupEP := b.AddSubscriber()
	reaperLookupRepo := repo.New(services, reaperLookupEP)
	go reaperLookupRepo.Run()

	reaperEP := b.AddSubscriber()
	rpr := reaper.New(kernel.Default.Waiter, reaperLookupRepo, reaperEP)
	go rpr.Run()

	signalsEP := b.AddSubscriber()
	dispatcher := signals.New(kernel.Default.Signals, signalsEP)
	dispatcher.Start()
	defer dispatcher.Stop()

	healthEP := b.AddSubscriber()
	healthRepo := repo.New(services, healthEP)
	go healthRepo.Run()
	monitor := health.NewMonitor(healthRepo, healthEP, kernel.Default.Signals)
	monitor.Start(context.Background(), services)
	defer monitor.Stop()

	// The runtime watches for ShutdownRequested on an endpoint of its own,
	// separate from runtimeEP, which runtimeRepo.Ingest drains every tick.
	runtimeCtlEP := b.AddSubscriber()
	rt := supervisor.New(runtimeRepo, runtimeCtlEP, kernel.Default.Process, kernel.Default.Signals, logDir)

	var snapshot map[string]repo.Handler
	if tui {
		snapshot = runDashboard(rt, runtimeRepo)
	} else {
		snapshot = rt.Run()
	}

	b.Close()
	return exitCode(snapshot, opts), nil
}

// runDashboard runs the runtime loop in the background while the status
// dashboard renders to the terminal in the foreground, matching the
// teacher's own TUI-goroutine-with-context pattern of not blocking the
// supervisor on terminal rendering.
func runDashboard(rt *supervisor.Runtime, r *repo.Repository) map[string]repo.Handler {
	resultCh := make(chan map[string]repo.Handler, 1)
	done := make(chan struct{})
	go func() {
		resultCh <- rt.Run()
		close(done)
	}()

	if err := statusview.Run(r.Snapshot, done); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: status dashboard error: %v\n", err)
	}
	return <-resultCh
}

// loadServices resolves spec.md §6's two invocation modes: an ad-hoc
// single command, or a directory of *.toml service definitions. The two
// are mutually exclusive.
func loadServices(servicesDir, adHocCmd string) ([]*config.Service, config.Options, error) {
	switch {
	case adHocCmd != "" && servicesDir != "":
		return nil, config.Options{}, fmt.Errorf("-cmd and -services-dir are mutually exclusive")
	case adHocCmd != "":
		return []*config.Service{config.NewAdHocService(adHocCmd)}, config.DefaultOptions(), nil
	case servicesDir != "":
		opts, err := config.LoadOptions(servicesDir + "/" + config.OptionsFileName)
		if err != nil {
			return nil, config.Options{}, fmt.Errorf("loading options: %w", err)
		}
		services, err := config.LoadServicesDir(servicesDir, opts, func(path string, err error) {
			fmt.Fprintf(os.Stderr, "daemon: skipping unparsable service %s: %v\n", path, err)
		})
		if err != nil {
			return nil, config.Options{}, fmt.Errorf("loading services: %w", err)
		}
		return services, opts, nil
	default:
		return nil, config.Options{}, fmt.Errorf("one of -cmd or -services-dir is required")
	}
}

// exitCode computes the process's exit status from the final snapshot
// (spec.md §6): 0 unless opts.UnsuccessfulExitFinishedFailed is set and at
// least one service ended the run in FinishedFailed.
func exitCode(snapshot map[string]repo.Handler, opts config.Options) int {
	if !opts.UnsuccessfulExitFinishedFailed {
		return 0
	}
	for _, h := range snapshot {
		if h.Status == repo.FinishedFailed {
			return 1
		}
	}
	return 0
}
