package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kodflow/daemon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPChecker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	checker := NewHTTPChecker("web", &config.HTTPCheck{Endpoint: server.URL, StatusCode: 200}, 5*time.Second)

	assert.Equal(t, "web", checker.Name())
	assert.Equal(t, "http", checker.Type())

	result := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Contains(t, result.Message, "200")
}

func TestHTTPCheckerUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewHTTPChecker("web", &config.HTTPCheck{Endpoint: server.URL, StatusCode: 200}, 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Contains(t, result.Message, "500")
}

func TestHTTPCheckerConnectionRefused(t *testing.T) {
	checker := NewHTTPChecker("web", &config.HTTPCheck{Endpoint: "http://127.0.0.1:1", StatusCode: 200}, time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Error(t, result.Error)
}

func TestTCPChecker(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)

	checker := NewTCPChecker("db", &config.TCPCheck{Host: "127.0.0.1", Port: addr.Port}, 5*time.Second)

	assert.Equal(t, "db", checker.Name())
	assert.Equal(t, "tcp", checker.Type())

	result := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestTCPCheckerUnhealthy(t *testing.T) {
	checker := NewTCPChecker("db", &config.TCPCheck{Host: "127.0.0.1", Port: 1}, time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Error(t, result.Error)
}

func TestExecChecker(t *testing.T) {
	checker := NewExecChecker("worker", &config.ExecCheck{Command: "echo healthy"}, 5*time.Second)

	assert.Equal(t, "worker", checker.Name())
	assert.Equal(t, "exec", checker.Type())

	result := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, "healthy", result.Message)
}

func TestExecCheckerUnhealthy(t *testing.T) {
	checker := NewExecChecker("worker", &config.ExecCheck{Command: "false"}, 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Error(t, result.Error)
}

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ready")
	require.NoError(t, os.WriteFile(path, []byte("ok"), 0o644))

	checker := NewFileChecker("worker", &config.FileCheck{Path: path})

	assert.Equal(t, "worker", checker.Name())
	assert.Equal(t, "file", checker.Type())

	result := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestFileCheckerMissing(t *testing.T) {
	checker := NewFileChecker("worker", &config.FileCheck{Path: "/nonexistent/ready"})
	result := checker.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Error(t, result.Error)
}

func TestNewChecker(t *testing.T) {
	tests := []struct {
		name       string
		hc         *config.Healthcheck
		expectType string
		wantErr    bool
	}{
		{
			name:       "http",
			hc:         &config.Healthcheck{HTTP: &config.HTTPCheck{Endpoint: "http://localhost"}},
			expectType: "http",
		},
		{
			name:       "tcp",
			hc:         &config.Healthcheck{TCP: &config.TCPCheck{Host: "localhost", Port: 80}},
			expectType: "tcp",
		},
		{
			name:       "file",
			hc:         &config.Healthcheck{File: &config.FileCheck{Path: "/tmp/ready"}},
			expectType: "file",
		},
		{
			name:       "exec",
			hc:         &config.Healthcheck{Exec: &config.ExecCheck{Command: "echo ok"}},
			expectType: "exec",
		},
		{
			name:    "none configured",
			hc:      &config.Healthcheck{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := NewChecker("svc", tt.hc)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, checker)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectType, checker.Type())
		})
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusUnknown, "unknown"},
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.status.String())
	}
}
