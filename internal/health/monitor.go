package health

import (
	"context"
	"sync"
	"syscall"
	"time"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/config"
	"github.com/kodflow/daemon/internal/kernel/ports"
	"github.com/kodflow/daemon/internal/repo"
)

// Monitor runs each healthchecked service's probe on its own ticker,
// publishing ServiceHealthy/ServiceUnhealthy onto the bus. Escalation past
// a service's retry budget folds directly into the scheduler's state
// machine: the monitor forwards SIGTERM to the offending PID and publishes
// ServiceStatusChanged(InKilling) itself, rather than routing through a
// separate kill-request event the scheduler would have to special-case.
type Monitor struct {
	repo    *repo.Repository
	ep      *bus.Endpoint
	signals ports.SignalManager

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewMonitor builds a Monitor reading service state from r (kept current by
// the caller running r.Run() against its own bus endpoint) and publishing
// through ep.
func NewMonitor(r *repo.Repository, ep *bus.Endpoint, signals ports.SignalManager) *Monitor {
	return &Monitor{repo: r, ep: ep, signals: signals}
}

// Start launches one probe loop per service carrying a Healthcheck
// definition. Services without one are never probed. Start returns once
// every loop has been launched; probing continues in the background until
// Stop or ctx is done.
func (m *Monitor) Start(ctx context.Context, services []*config.Service) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for _, svc := range services {
		if svc.Healthcheck == nil {
			continue
		}
		checker, err := NewChecker(svc.Name, svc.Healthcheck)
		if err != nil {
			continue
		}
		m.wg.Add(1)
		go m.run(ctx, svc, checker)
	}
}

// Stop cancels every probe loop and waits for them to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// run is the per-service probe loop: it ticks at the service's configured
// interval, only probing while the service is Running, and escalates after
// Retries consecutive failures.
func (m *Monitor) run(ctx context.Context, svc *config.Service, checker Checker) {
	defer m.wg.Done()

	interval := svc.Healthcheck.Interval.Duration()
	if interval <= 0 {
		interval = 10 * time.Second
	}
	retries := svc.Healthcheck.Retries
	if retries <= 0 {
		retries = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h, ok := m.repo.Get(svc.Name)
			if !ok || h.Status != repo.Running {
				failures = 0
				continue
			}

			result := checker.Check(ctx)
			if result.Status == StatusHealthy {
				failures = 0
				m.ep.Publish(bus.Event{Type: bus.ServiceHealthy, ServiceName: svc.Name})
				continue
			}

			failures++
			if failures < retries {
				continue
			}
			failures = 0

			m.ep.Publish(bus.Event{Type: bus.ServiceUnhealthy, ServiceName: svc.Name})
			if h.PID > 0 {
				_ = m.signals.Forward(h.PID, syscall.SIGTERM)
			}
			m.ep.Publish(bus.Event{
				Type:        bus.ServiceStatusChanged,
				ServiceName: svc.Name,
				Status:      int(repo.InKilling),
			})
		}
	}
}
