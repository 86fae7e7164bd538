// Package repo implements the per-component service state replica: each
// consumer of the bus (reaper, health monitor, scheduler) owns its own
// Repository and folds the same total-ordered event stream into it
// independently, so no component ever takes a lock belonging to another.
// This directly replaces a shared-mutex service map with the bus's
// broadcast-to-every-subscriber guarantee as the single source of truth.
package repo

import (
	"sync"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/config"
)

// Status is a service's position in its lifecycle state machine:
// Initial -> ToBeRun -> Starting -> Running -> InKilling -> one of
// {Finished, FinishedFailed, Failed}.
type Status int

const (
	Initial Status = iota
	ToBeRun
	Starting
	Running
	InKilling
	Finished
	FinishedFailed
	Failed
)

func (s Status) String() string {
	switch s {
	case Initial:
		return "Initial"
	case ToBeRun:
		return "ToBeRun"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case InKilling:
		return "InKilling"
	case Finished:
		return "Finished"
	case FinishedFailed:
		return "FinishedFailed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the status is one this service never leaves
// (Finished, FinishedFailed, Failed): fold ignores every event for a
// handler in a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case Finished, FinishedFailed, Failed:
		return true
	default:
		return false
	}
}

// IsRunning reports whether the service is actively running or starting up.
func (s Status) IsRunning() bool {
	return s == Starting || s == Running
}

// Handler is a Repository's view of a single service: its static
// definition plus the dynamic state the bus has folded in so far.
type Handler struct {
	Service *config.Service
	Status  Status
	PID     int

	// everRan is true once this handler has reached Running at least
	// once. start_after only requires a predecessor to have reached
	// Running or a terminal status "at some point", not currently, so a
	// predecessor cycling back to Initial on an Always restart must not
	// un-satisfy a dependent that already started.
	everRan bool
}

// IsRunning reports the handler's current status is Starting or Running.
func (h *Handler) IsRunning() bool { return h.Status.IsRunning() }

// IsTerminal reports the handler's current status is terminal.
func (h *Handler) IsTerminal() bool { return h.Status.Terminal() }

// Repository is one component's replica of every known service's state,
// kept current by repeatedly calling Ingest with that component's bus
// Endpoint.
type Repository struct {
	mu       sync.RWMutex
	handlers map[string]*Handler
	endpoint *bus.Endpoint

	// shuttingDown is folded from ShutdownRequested like any other event,
	// so two fresh replicas fed the same event sequence still agree on
	// it. Once set, ServiceExited resolves straight to a terminal status
	// regardless of restart policy (spec.md §4.2: a shutdown in progress
	// overrides restart).
	shuttingDown bool
}

// New builds a Repository seeded with the given service definitions, all
// starting in Initial, bound to endpoint for both publishing and folding.
func New(services []*config.Service, endpoint *bus.Endpoint) *Repository {
	r := &Repository{
		handlers: make(map[string]*Handler, len(services)),
		endpoint: endpoint,
	}
	for _, svc := range services {
		r.handlers[svc.Name] = &Handler{Service: svc, Status: Initial}
	}
	return r
}

// Ingest drains every event currently available on the bound endpoint
// without blocking, folding each into local state. Call it once per
// scheduler tick, as horust's runtime loop calls
// service_repository.ingest("runtime") once per iteration.
func (r *Repository) Ingest() {
	for {
		select {
		case ev, ok := <-r.endpoint.Events():
			if !ok {
				return
			}
			r.fold(ev)
		default:
			return
		}
	}
}

// Run blocks, folding every event the bound endpoint receives, until the
// endpoint's channel is closed (i.e. the bus was closed). Components that
// don't run their own tick loop (the health monitor, the reaper) use Run
// instead of polling Ingest.
func (r *Repository) Run() {
	for ev := range r.endpoint.Events() {
		r.fold(ev)
	}
}

// fold applies a single bus event to the local replica. ShutdownRequested
// carries no ServiceName, so it's handled before the per-service lookup;
// every other event is a no-op against an unknown or already-terminal
// handler (spec.md §4.2: no transition leaves a terminal state).
func (r *Repository) fold(ev bus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Type == bus.ShutdownRequested {
		r.shuttingDown = true
		return
	}

	h, ok := r.handlers[ev.ServiceName]
	if !ok || h.IsTerminal() {
		return
	}

	switch ev.Type {
	case bus.ServiceStatusChanged:
		h.Status = Status(ev.Status)
		if h.Status == Running {
			h.everRan = true
		}
	case bus.ServicePIDAssigned:
		h.PID = ev.PID
		h.Status = Running
		h.everRan = true
	case bus.ServiceExited:
		h.PID = 0
		if r.shuttingDown {
			if ev.Signaled || ev.ExitCode != 0 {
				h.Status = FinishedFailed
			} else {
				h.Status = Finished
			}
			return
		}
		h.Status = nextStatusAfterExit(h.Service.Restart, ev)
	}
}

// nextStatusAfterExit decides a service's post-exit status from its
// restart policy and exit detail, matching mod.rs's
// set_status_by_exit_code: Never always ends terminal (Finished on a
// clean exit, FinishedFailed otherwise); OnFailure restarts only on a
// non-zero/signaled exit and otherwise ends terminal; Always always
// restarts. A signaled death always counts as a failure for this
// decision, independent of the signal-death exit code encoding used for
// reporting (see internal/reaper).
func nextStatusAfterExit(policy config.RestartPolicy, ev bus.Event) Status {
	failed := ev.Signaled || ev.ExitCode != 0

	switch policy {
	case config.RestartAlways:
		return Initial
	case config.RestartOnFailure:
		if failed {
			return Initial
		}
		return Finished
	default: // config.RestartNever
		if failed {
			return FinishedFailed
		}
		return Finished
	}
}

// UpdateStatus publishes a status transition for name. It does not mutate
// the local replica directly: the publish rebroadcasts to every
// subscriber including this one, so the single fold codepath above is the
// only place state actually changes.
func (r *Repository) UpdateStatus(name string, status Status) {
	r.endpoint.Publish(bus.Event{
		Type:        bus.ServiceStatusChanged,
		ServiceName: name,
		Status:      int(status),
	})
}

// UpdatePID publishes a PID assignment for name.
func (r *Repository) UpdatePID(name string, pid int) {
	r.endpoint.Publish(bus.Event{
		Type:        bus.ServicePIDAssigned,
		ServiceName: name,
		PID:         pid,
	})
}

// Get returns a copy of the named handler's current state.
func (r *Repository) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return Handler{}, false
	}
	return *h, true
}

// GetServiceByPID returns the name of the service currently holding pid,
// if any.
func (r *Repository) GetServiceByPID(pid int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, h := range r.handlers {
		if h.PID == pid {
			return name, true
		}
	}
	return "", false
}

// GetRunnable returns every service currently in Initial whose start_after
// predecessors have each reached Running at some point, or finished (with
// or without failure). This is a predicate, not a dependency DAG: a
// predecessor only ever needs to have been seen running once.
func (r *Repository) GetRunnable() []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runnable []*Handler
	for _, h := range r.handlers {
		if h.Status != Initial {
			continue
		}
		if r.canRunLocked(h) {
			runnable = append(runnable, h)
		}
	}
	return runnable
}

func (r *Repository) canRunLocked(h *Handler) bool {
	for _, dep := range h.Service.StartAfter {
		depHandler, ok := r.handlers[dep]
		if !ok {
			continue
		}
		if !(depHandler.everRan || depHandler.IsTerminal()) {
			return false
		}
	}
	return true
}

// IsAnyRunning reports whether any service is Starting or Running.
func (r *Repository) IsAnyRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handlers {
		if h.IsRunning() {
			return true
		}
	}
	return false
}

// AllFinished reports whether every service has reached a terminal state.
func (r *Repository) AllFinished() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handlers {
		if !h.IsTerminal() {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of every handler's current state, keyed by
// service name, for read-only consumers like internal/statusview.
func (r *Repository) Snapshot() map[string]Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Handler, len(r.handlers))
	for name, h := range r.handlers {
		out[name] = *h
	}
	return out
}
