// Package spawner starts a service's process: pre-start delay, split the
// command on whitespace, start it in its own process group, and report
// the outcome onto the bus. Quotes and backslash escapes in the command
// are not interpreted, so no single argument can contain a space. Grounded on spec.md §4.7; translated from the
// source's fork()/execvp() model (original_source/src/horust/mod.rs) to
// Go's exec.Cmd, which performs the fork+exec+chdir+environment setup as
// one syscall sequence rather than requiring a hand-split pre-exec child
// path.
package spawner

import (
	"os/exec"
	"strings"
	"time"

	"github.com/kodflow/daemon/internal/bus"
	"github.com/kodflow/daemon/internal/config"
	"github.com/kodflow/daemon/internal/kernel/ports"
	"github.com/kodflow/daemon/internal/logging"
	"github.com/kodflow/daemon/internal/repo"
)

// Spawn launches svc in a fresh goroutine, honoring start_delay without
// blocking the caller (spec.md §4.7: "run in a fresh thread per start
// request"). logDir is passed to internal/logging.NewCapture; an empty
// logDir leaves the child's stdout/stderr attached to the supervisor's own.
func Spawn(ep *bus.Endpoint, process ports.ProcessControl, svc *config.Service, logDir string) {
	go spawn(ep, process, svc, logDir)
}

func spawn(ep *bus.Endpoint, process ports.ProcessControl, svc *config.Service, logDir string) {
	if d := svc.StartDelay.Duration(); d > 0 {
		time.Sleep(d)
	}

	parts := strings.Fields(svc.Command)
	if len(parts) == 0 {
		publishFailed(ep, svc.Name)
		return
	}

	capture, err := logging.NewCapture(svc.Name, logDir)
	if err != nil {
		publishFailed(ep, svc.Name)
		return
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = svc.WorkingDirectory
	cmd.Stdout = capture.Stdout()
	cmd.Stderr = capture.Stderr()
	process.SetProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		publishFailed(ep, svc.Name)
		return
	}

	pid := cmd.Process.Pid

	// internal/reaper is the sole waitpid(-1, ...) caller in the process
	// (spec.md §4.4's isolation requirement); Release marks this *os.Process
	// so the Go runtime never issues its own wait for it, which would race
	// the reaper for the same exit notification.
	_ = cmd.Process.Release()

	ep.Publish(bus.Event{Type: bus.ServicePIDAssigned, ServiceName: svc.Name, PID: pid})
}

func publishFailed(ep *bus.Endpoint, name string) {
	ep.Publish(bus.Event{
		Type:        bus.ServiceStatusChanged,
		ServiceName: name,
		Status:      int(repo.Failed),
	})
}
