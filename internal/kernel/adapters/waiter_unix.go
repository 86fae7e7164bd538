//go:build unix

package adapters

import (
	"errors"
	"syscall"

	"github.com/kodflow/daemon/internal/kernel/ports"
)

// UnixWaiter implements ports.Waiter for Unix systems via a non-blocking
// wait4(-1, WNOHANG) call, the same primitive reaper.rs builds its
// supervisor_thread on.
type UnixWaiter struct{}

// NewUnixWaiter creates a new Waiter.
func NewUnixWaiter() *UnixWaiter {
	return &UnixWaiter{}
}

// Wait performs one non-blocking waitpid(-1, WNOHANG) call.
func (w *UnixWaiter) Wait() (ports.WaitResult, bool, error) {
	var status syscall.WaitStatus
	pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG, nil)
	if err != nil {
		if errors.Is(err, syscall.ECHILD) {
			return ports.WaitResult{}, false, nil
		}
		return ports.WaitResult{}, false, err
	}
	if pid <= 0 {
		return ports.WaitResult{}, false, nil
	}

	result := ports.WaitResult{PID: pid}
	switch {
	case status.Exited():
		result.Exited = true
		result.ExitCode = status.ExitStatus()
	case status.Signaled():
		result.Signaled = true
		result.Signal = int(status.Signal())
	default:
		// Stopped/continued notifications are not exit events; report not
		// found so the caller keeps polling.
		return ports.WaitResult{}, false, nil
	}
	return result, true, nil
}
