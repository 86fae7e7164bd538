// Package config provides the service definition and daemon option types,
// plus TOML loading and validation, for the daemon process supervisor.
package config

import "time"

// Service is a single service definition, normally loaded from its own TOML
// file. Name is unique among the set of services handed to the supervisor.
// StartAfter is an ordering hint only, not a dependency DAG: a listed
// predecessor only needs to have reached Running, Finished, or
// FinishedFailed at some point (see repo.Repository.GetRunnable).
type Service struct {
	Name             string        `toml:"name"`
	Command          string        `toml:"command"`
	WorkingDirectory string        `toml:"working_directory,omitempty"`
	StartDelay       Duration      `toml:"start_delay,omitempty"`
	StartAfter       []string      `toml:"start_after,omitempty"`
	Restart          RestartPolicy `toml:"restart,omitempty"`
	Healthcheck      *Healthcheck  `toml:"healthcheck,omitempty"`

	// SourcePath is the file this definition was loaded from, if any. Not
	// serialized; used only for diagnostics and default-name inference.
	SourcePath string `toml:"-"`
}

// RestartPolicy controls whether a service is restarted after it exits.
type RestartPolicy string

const (
	RestartNever     RestartPolicy = "never"
	RestartOnFailure RestartPolicy = "on-failure"
	RestartAlways    RestartPolicy = "always"
)

// Healthcheck holds the set of probes configured for a service. Exactly one
// of HTTP, TCP, File, Exec is expected to be set; Interval/Timeout/Retries
// are shared across whichever probe is configured.
type Healthcheck struct {
	Interval Duration `toml:"interval"`
	Timeout  Duration `toml:"timeout"`
	Retries  int      `toml:"retries,omitempty"`

	HTTP *HTTPCheck `toml:"http,omitempty"`
	TCP  *TCPCheck  `toml:"tcp,omitempty"`
	File *FileCheck `toml:"file,omitempty"`
	Exec *ExecCheck `toml:"exec,omitempty"`
}

// HTTPCheck probes a service by issuing an HTTP request and checking the
// response status code.
type HTTPCheck struct {
	Endpoint   string `toml:"endpoint"`
	Method     string `toml:"method,omitempty"`
	StatusCode int    `toml:"status_code,omitempty"`
}

// TCPCheck probes a service by attempting a TCP connection.
type TCPCheck struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// FileCheck probes a service by checking for the existence of a file, e.g.
// a liveness file the service itself touches.
type FileCheck struct {
	Path string `toml:"path"`
}

// ExecCheck probes a service by running a command and checking its exit
// code.
type ExecCheck struct {
	Command string `toml:"command"`
}

// Options holds daemon-wide, non-service configuration, normally loaded from
// a reserved daemon.toml next to the service definitions.
type Options struct {
	// UnsuccessfulExitFinishedFailed, when true, makes the daemon process
	// exit non-zero if any service ended the run in FinishedFailed.
	UnsuccessfulExitFinishedFailed bool `toml:"unsuccessful_exit_finished_failed"`

	// SkipUnparsable controls whether a service definition file that fails
	// to parse is logged and skipped (true, the default) or treated as a
	// fatal startup error (false).
	SkipUnparsable bool `toml:"skip_unparsable"`
}

// DefaultOptions returns the daemon's default configuration.
func DefaultOptions() Options {
	return Options{
		SkipUnparsable: true,
	}
}

// Duration wraps time.Duration with TOML text (un)marshaling so definition
// files can write "5s", "1m30s", and so on.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
