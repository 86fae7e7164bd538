package health

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kodflow/daemon/internal/config"
)

// FileChecker probes a service's liveness by checking for the existence of
// a file the service is expected to touch (or remove) itself, e.g. a PID
// file or a ready-marker.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a new file-existence health checker for
// serviceName.
func NewFileChecker(serviceName string, cfg *config.FileCheck) *FileChecker {
	return &FileChecker{
		name: serviceName,
		path: cfg.Path,
	}
}

// Name returns the checker name.
func (c *FileChecker) Name() string {
	return c.name
}

// Type returns the checker type.
func (c *FileChecker) Type() string {
	return "file"
}

// Check reports healthy when the configured path exists.
func (c *FileChecker) Check(ctx context.Context) Result {
	start := time.Now()

	_, err := os.Stat(c.path)
	if err != nil {
		return Result{
			Status:    StatusUnhealthy,
			Message:   fmt.Sprintf("stat %s: %v", c.path, err),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
			Error:     err,
		}
	}

	return Result{
		Status:    StatusHealthy,
		Message:   fmt.Sprintf("%s exists", c.path),
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}
