// Package ports defines the interfaces for OS abstraction.
package ports

import "os/exec"

// ProcessControl handles process-group level operations.
type ProcessControl interface {
	// SetProcessGroup configures a command to run in its own process
	// group, so signals can be delivered to it and its children together.
	SetProcessGroup(cmd *exec.Cmd)

	// GetProcessGroup returns the process group ID for a process.
	GetProcessGroup(pid int) (int, error)
}
