// Package supervisor implements the runtime loop (spec.md §4.6): the
// scheduler that ingests bus events, starts runnable services, escalates
// stuck shutdowns to SIGKILL, and decides when the daemon as a whole is
// done.
package supervisor

import (
	"syscall"
	"time"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/kernel/ports"
	"github.com/kodflow/daemon/internal/repo"
	"github.com/kodflow/daemon/internal/spawner"
)

// tickInterval is the runtime loop's polling period (spec.md §4.6
// recommends roughly 5Hz).
const tickInterval = 200 * time.Millisecond

// killEscalationTimeout is how long a service may sit in InKilling before
// the runtime escalates from SIGTERM to SIGKILL
// (spec.md §4.6's T_kill, recommended 10s).
const killEscalationTimeout = 10 * time.Second

// Runtime drives the supervised set of services to completion: spawning
// what's runnable, folding exits, and escalating stuck shutdowns.
type Runtime struct {
	repo    *repo.Repository
	ep      *bus.Endpoint
	process ports.ProcessControl
	signals ports.SignalManager
	logDir  string

	// tick and killTimeout default to tickInterval/killEscalationTimeout;
	// tests shrink them to keep escalation assertions fast.
	tick        time.Duration
	killTimeout time.Duration

	shuttingDown bool
	killingSince map[string]time.Time
}

// New builds a Runtime bound to repo/ep, its own private replica and
// endpoint per internal/repo's one-replica-per-component model. process
// and signals are the kernel ports used to spawn and signal children;
// logDir is forwarded to internal/spawner for stdout/stderr capture.
func New(r *repo.Repository, ep *bus.Endpoint, process ports.ProcessControl, signals ports.SignalManager, logDir string) *Runtime {
	return &Runtime{
		repo:         r,
		ep:           ep,
		process:      process,
		signals:      signals,
		logDir:       logDir,
		tick:         tickInterval,
		killTimeout:  killEscalationTimeout,
		killingSince: make(map[string]time.Time),
	}
}

// Run blocks, ticking at its configured interval, until every service has
// reached a terminal status, then returns a snapshot for cmd/daemon to
// compute the process's exit status from.
func (rt *Runtime) Run() map[string]repo.Handler {
	ticker := time.NewTicker(rt.tick)
	defer ticker.Stop()

	for range ticker.C {
		rt.repo.Ingest()

		switch {
		case rt.shuttingDown:
			rt.sawShutdownRequest()
			rt.driveShutdown()
		case rt.sawShutdownRequest():
			rt.shuttingDown = true
			rt.stopAll()
		default:
			rt.startRunnable()
		}

		if rt.repo.AllFinished() {
			return rt.repo.Snapshot()
		}
	}
	return rt.repo.Snapshot()
}

// sawShutdownRequest drains the Runtime's own endpoint, reporting whether
// a ShutdownRequested was among the events read. Repository folds
// ShutdownRequested into private state it does not expose, so the Runtime
// watches for it directly instead of via repo state. Run calls this on
// every tick, also once shutdown has begun, so the endpoint's buffer never
// fills and stalls the bus.
func (rt *Runtime) sawShutdownRequest() bool {
	for {
		select {
		case ev, ok := <-rt.ep.Events():
			if !ok {
				return false
			}
			if ev.Type == bus.ShutdownRequested {
				return true
			}
		default:
			return false
		}
	}
}

// startRunnable spawns every service whose start_after predicate is
// satisfied, moving each to Starting before launching it so a second
// tick never spawns it twice.
func (rt *Runtime) startRunnable() {
	for _, h := range rt.repo.GetRunnable() {
		rt.repo.UpdateStatus(h.Service.Name, repo.Starting)
		spawner.Spawn(rt.ep, rt.process, h.Service, rt.logDir)
	}
}

// stopAll walks every handler once, sending each running service its
// stop signal and marking it InKilling; services that never started are
// marked Finished directly since they have nothing to stop. A service
// already InKilling is left alone: it's mid-shutdown and driveShutdown
// owns it from here (spec.md §4.6: Terminal or InKilling -> unchanged).
func (rt *Runtime) stopAll() {
	for name, h := range rt.repo.Snapshot() {
		switch {
		case h.IsTerminal(), h.Status == repo.InKilling:
			continue
		case h.IsRunning():
			rt.signalStop(name, h)
		default: // Initial or ToBeRun: never spawned
			rt.repo.UpdateStatus(name, repo.Finished)
		}
	}
}

// signalStop sends a service SIGTERM and records when the kill
// escalation timer started.
func (rt *Runtime) signalStop(name string, h repo.Handler) {
	if h.PID > 0 {
		_ = rt.signals.Forward(h.PID, syscall.SIGTERM)
	}
	rt.repo.UpdateStatus(name, repo.InKilling)
	rt.killingSince[name] = time.Now()
}

// driveShutdown re-applies stopAll's decision to any service that only
// just became running (a start already in flight when shutdown began),
// and escalates any service that has spent more than
// killEscalationTimeout in InKilling to SIGKILL.
func (rt *Runtime) driveShutdown() {
	for name, h := range rt.repo.Snapshot() {
		if h.IsTerminal() {
			delete(rt.killingSince, name)
			continue
		}

		if h.Status == repo.InKilling {
			since, tracked := rt.killingSince[name]
			if !tracked {
				rt.killingSince[name] = time.Now()
				continue
			}
			if time.Since(since) >= rt.killTimeout && h.PID > 0 {
				_ = rt.signals.Forward(h.PID, syscall.SIGKILL)
			}
			continue
		}

		if h.IsRunning() {
			rt.signalStop(name, h)
		}
	}
}
