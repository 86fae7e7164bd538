// Package kernel provides OS abstraction for the daemon.
package kernel

import (
	"github.com/kodflow/daemon/internal/kernel/adapters"
	"github.com/kodflow/daemon/internal/kernel/ports"
)

// Kernel provides access to all OS abstraction interfaces.
// It aggregates platform-specific implementations for signals, process
// control, and the reaper's wait call.
type Kernel struct {
	// Signals handles signal notification and forwarding operations.
	Signals ports.SignalManager
	// Process handles process group operations.
	Process ports.ProcessControl
	// Waiter performs the non-blocking wait calls the reaper component
	// correlates against known service PIDs.
	Waiter ports.Waiter
}

// New creates a new Kernel with platform-specific implementations.
//
// Returns:
//   - *Kernel: a new kernel instance with all interfaces initialized
func New() *Kernel {
	// Return a new Kernel with all platform-specific adapters initialized.
	return &Kernel{
		Signals: adapters.NewUnixSignalManager(),
		Process: adapters.NewUnixProcessControl(),
		Waiter:  adapters.NewUnixWaiter(),
	}
}

// Default is the default kernel instance.
var Default *Kernel = New()
