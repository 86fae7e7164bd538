package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kodflow/daemon/internal/config"
)

// TCPChecker performs TCP health checks.
type TCPChecker struct {
	name    string
	address string
	timeout time.Duration
}

// NewTCPChecker creates a new TCP health checker for serviceName.
func NewTCPChecker(serviceName string, cfg *config.TCPCheck, timeout time.Duration) *TCPChecker {
	return &TCPChecker{
		name:    serviceName,
		address: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		timeout: timeout,
	}
}

// Name returns the checker name.
func (c *TCPChecker) Name() string {
	return c.name
}

// Type returns the checker type.
func (c *TCPChecker) Type() string {
	return "tcp"
}

// Check performs a TCP health check by attempting to connect.
func (c *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{
		Timeout: c.timeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return Result{
			Status:    StatusUnhealthy,
			Message:   fmt.Sprintf("connection failed: %v", err),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
			Error:     err,
		}
	}
	conn.Close()

	return Result{
		Status:    StatusHealthy,
		Message:   fmt.Sprintf("connected to %s", c.address),
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}
