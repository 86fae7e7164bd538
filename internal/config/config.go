package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// OptionsFileName is the reserved file name for daemon-wide options inside a
// services directory. It is skipped when scanning for service definitions.
const OptionsFileName = "daemon.toml"

// LoadServiceFile reads and parses a single service definition from path. If
// the definition omits name, it is inferred from the file's base name
// (without extension), following fetch_services's behavior of naming a
// service after its file.
func LoadServiceFile(path string) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service file: %w", err)
	}

	var svc Service
	if err := toml.Unmarshal(data, &svc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if svc.Name == "" {
		base := filepath.Base(path)
		svc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	svc.SourcePath = path

	applyServiceDefaults(&svc)
	return &svc, nil
}

// LoadOptions reads daemon-wide options from path. A missing file yields
// DefaultOptions with no error, since options are optional.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("reading options file: %w", err)
	}

	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing %s: %w", path, err)
	}
	return opts, nil
}

// LoadServicesDir scans dir (non-recursively) for *.toml files and parses
// each as a Service, mirroring fetch_services. OptionsFileName is reserved
// and never treated as a service. Files that fail to parse are skipped and
// reported via onSkip (if non-nil) when opts.SkipUnparsable is true;
// otherwise the first parse failure is returned as a fatal error. The
// returned slice is sorted by name for deterministic iteration order.
func LoadServicesDir(dir string, opts Options, onSkip func(path string, err error)) ([]*Service, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading services directory: %w", err)
	}

	var services []*Service
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		if entry.Name() == OptionsFileName {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		svc, err := LoadServiceFile(path)
		if err != nil {
			if opts.SkipUnparsable {
				if onSkip != nil {
					onSkip(path, err)
				}
				continue
			}
			return nil, err
		}
		services = append(services, svc)
	}

	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	if err := ValidateServices(services); err != nil {
		return nil, fmt.Errorf("validating services: %w", err)
	}
	return services, nil
}

// NewAdHocService builds a single Service from a raw command line, for the
// ad-hoc single-command invocation mode (no service definition file at all).
func NewAdHocService(command string) *Service {
	svc := &Service{
		Name:    "adhoc",
		Command: command,
		Restart: RestartNever,
	}
	applyServiceDefaults(svc)
	return svc
}

// applyServiceDefaults fills in defaults for fields a definition left unset.
func applyServiceDefaults(svc *Service) {
	if svc.Restart == "" {
		svc.Restart = RestartNever
	}
	if svc.WorkingDirectory == "" {
		svc.WorkingDirectory = "/"
	}

	hc := svc.Healthcheck
	if hc == nil {
		return
	}
	if hc.Retries == 0 {
		hc.Retries = 3
	}
	if hc.Timeout == 0 {
		hc.Timeout = Duration(2_000_000_000) // 2s
	}
	if hc.HTTP != nil {
		if hc.HTTP.Method == "" {
			hc.HTTP.Method = "GET"
		}
		if hc.HTTP.StatusCode == 0 {
			hc.HTTP.StatusCode = 200
		}
	}
}
