// Package signals implements the Signal Dispatcher (spec.md §4.3): it
// installs handlers for SIGTERM, SIGINT, and SIGCHLD and translates them
// into bus events, so no other component ever calls signal.Notify itself.
// Go's os/signal.Notify already is the async-signal-safe handler spec.md
// §4.3/§9 describes (a process-wide flag flipped by a C-level handler,
// drained by a dedicated goroutine) — this package is the "dedicated
// thread polling the flags" the spec calls for, built on that primitive
// instead of a hand-rolled atomic + raw sigaction.
package signals

import (
	"os"
	"sync"
	"syscall"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/kernel/ports"
)

// Dispatcher installs termination and child-death signal handlers and
// republishes them on the bus as ShutdownRequested / ReapRequested.
type Dispatcher struct {
	manager ports.SignalManager
	ep      *bus.Endpoint

	once sync.Once
	done chan struct{}
}

// New builds a Dispatcher. Call Start once, before any other component
// that forks children, per spec.md §5 ("exactly one installer of signal
// handlers... before other threads spawn").
func New(manager ports.SignalManager, ep *bus.Endpoint) *Dispatcher {
	return &Dispatcher{manager: manager, ep: ep, done: make(chan struct{})}
}

// Start registers the signal handlers and launches the dispatch loop in a
// new goroutine. It returns immediately.
func (d *Dispatcher) Start() {
	ch := d.manager.Notify(os.Interrupt, syscall.SIGTERM, syscall.SIGCHLD)
	go d.run(ch)
}

// Stop ends the dispatch loop. The channel Notify returns is typed
// <-chan os.Signal, so it can never be handed back to
// SignalManager.Stop (which wants chan<- os.Signal) — this dispatcher
// runs for the supervisor's whole lifetime anyway, so Stop only needs to
// unblock run's select, not deregister the OS-level handler.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.done) })
}

func (d *Dispatcher) run(ch <-chan os.Signal) {
	for {
		select {
		case <-d.done:
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			switch {
			case d.manager.IsTermSignal(sig):
				d.ep.Publish(bus.Event{Type: bus.ShutdownRequested})
			case sig == syscall.SIGCHLD:
				d.ep.Publish(bus.Event{Type: bus.ReapRequested})
			}
		}
	}
}
