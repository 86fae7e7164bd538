package health

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kodflow/daemon/internal/config"
)

// ExecChecker performs command-based health checks: the probe is healthy
// when the command exits zero.
type ExecChecker struct {
	name    string
	command string
	timeout time.Duration
}

// NewExecChecker creates a new exec health checker for serviceName.
func NewExecChecker(serviceName string, cfg *config.ExecCheck, timeout time.Duration) *ExecChecker {
	return &ExecChecker{
		name:    serviceName,
		command: cfg.Command,
		timeout: timeout,
	}
}

// Name returns the checker name.
func (c *ExecChecker) Name() string {
	return c.name
}

// Type returns the checker type.
func (c *ExecChecker) Type() string {
	return "exec"
}

// Check runs the configured command and reports healthy on a zero exit.
func (c *ExecChecker) Check(ctx context.Context) Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := strings.Fields(c.command)
	if len(parts) == 0 {
		return Result{
			Status:    StatusUnhealthy,
			Message:   "empty command",
			Duration:  time.Since(start),
			Timestamp: time.Now(),
			Error:     fmt.Errorf("empty command"),
		}
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{
			Status:    StatusUnhealthy,
			Message:   fmt.Sprintf("command failed: %v (output: %s)", err, strings.TrimSpace(string(output))),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
			Error:     err,
		}
	}

	return Result{
		Status:    StatusHealthy,
		Message:   strings.TrimSpace(string(output)),
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}
