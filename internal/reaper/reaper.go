// Package reaper implements the sole waitpid(-1, WNOHANG) caller in the
// process (spec.md §4.4's isolation requirement): a PID reported exited by
// more than one caller could be reassigned to a new fork before either
// caller correlates it, so every other component that needs exit detail
// reaches it only through the ServiceExited events this package publishes.
package reaper

import (
	"fmt"
	"os"
	"time"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/kernel/ports"
	"github.com/kodflow/daemon/internal/repo"
)

// maxBatchIterations bounds how many exits a single wakeup reaps before
// returning control to Run's select loop, per spec.md §4.4 ("up to N
// iterations, bounded, e.g. N = 20").
const maxBatchIterations = 20

// signalDeathBase is added to a terminating signal's number to report a
// signal death as an exit code (spec.md §4.4/§9: "128 + signo" preferred
// over the reference implementation's fixed -137, since it still encodes
// which signal killed the process; see DESIGN.md for the resolved Open
// Question).
const signalDeathBase = 128

// safetyNetInterval is a periodic fallback reap, in case a ReapRequested
// wakeup is ever coalesced away under signal load (POSIX does not queue
// SIGCHLD — only its edge is guaranteed, not one event per child).
const safetyNetInterval = time.Second

// Reaper drains exited children via waiter and publishes ServiceExited for
// every PID that maps to a known service.
type Reaper struct {
	waiter ports.Waiter

	// lookupRepo is this component's own Repository replica, used only to
	// resolve a reaped PID back to a service name. The caller must run
	// lookupRepo.Run() against lookupEp in its own goroutine before
	// calling Run, per internal/repo's one-replica-per-component model.
	lookupRepo *repo.Repository

	// ep is the endpoint Run receives ReapRequested wakeups on and
	// publishes ServiceExited through. Kept separate from lookupEp so the
	// two consumption loops (repo folding vs. reap wakeups) never race
	// over the same channel.
	ep *bus.Endpoint
}

// New builds a Reaper.
func New(waiter ports.Waiter, lookupRepo *repo.Repository, ep *bus.Endpoint) *Reaper {
	return &Reaper{waiter: waiter, lookupRepo: lookupRepo, ep: ep}
}

// Run blocks, reaping on every ReapRequested wakeup and on a periodic
// safety-net tick, until ep's channel closes (the bus shut down).
func (r *Reaper) Run() {
	ticker := time.NewTicker(safetyNetInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-r.ep.Events():
			if !ok {
				return
			}
			if ev.Type == bus.ReapRequested {
				r.reapBatch()
			}
		case <-ticker.C:
			r.reapBatch()
		}
	}
}

// reapBatch performs up to maxBatchIterations non-blocking waits. A reaped
// PID that doesn't map to a known service (an orphaned grandchild
// reparented to this process as subreaper) is still reaped — preventing
// zombie accumulation, spec.md §8 scenario 5 — but generates no event.
func (r *Reaper) reapBatch() {
	for i := 0; i < maxBatchIterations; i++ {
		result, found, err := r.waiter.Wait()
		if err != nil {
			// Logged and dropped per spec.md §7: an unexpected wait error
			// ends this batch; the next wakeup tries again.
			fmt.Fprintf(os.Stderr, "daemon: reaper: wait failed: %v\n", err)
			return
		}
		if !found {
			return
		}

		name, ok := r.lookupRepo.GetServiceByPID(result.PID)
		if !ok {
			continue
		}

		ev := bus.Event{Type: bus.ServiceExited, ServiceName: name}
		if result.Signaled {
			ev.Signaled = true
			ev.Signal = result.Signal
			ev.ExitCode = signalDeathBase + result.Signal
		} else {
			ev.ExitCode = result.ExitCode
		}
		r.ep.Publish(ev)
	}
}
