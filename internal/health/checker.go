// Package health provides health checking for supervised services: HTTP,
// TCP, file-liveness, and exec probes, plus a Monitor that runs each
// configured service's probe on its own ticker and reports the result
// onto the bus.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/kodflow/daemon/internal/config"
)

// Status represents the health status of a single probe.
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single probe invocation.
type Result struct {
	Status    Status
	Message   string
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Checker is the interface every probe type implements.
type Checker interface {
	// Check performs a single health check and returns the result.
	Check(ctx context.Context) Result
	// Name returns a human-readable identifier for this checker.
	Name() string
	// Type returns the checker's kind: http, tcp, file, or exec.
	Type() string
}

// NewChecker builds the Checker configured by hc. Exactly one of
// hc.HTTP/TCP/File/Exec is expected to be set (validated at load time by
// internal/config.ValidateServices).
func NewChecker(serviceName string, hc *config.Healthcheck) (Checker, error) {
	switch {
	case hc.HTTP != nil:
		return NewHTTPChecker(serviceName, hc.HTTP, hc.Timeout.Duration()), nil
	case hc.TCP != nil:
		return NewTCPChecker(serviceName, hc.TCP, hc.Timeout.Duration()), nil
	case hc.File != nil:
		return NewFileChecker(serviceName, hc.File), nil
	case hc.Exec != nil:
		return NewExecChecker(serviceName, hc.Exec, hc.Timeout.Duration()), nil
	default:
		return nil, fmt.Errorf("healthcheck for %s: no probe configured", serviceName)
	}
}
