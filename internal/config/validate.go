package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateServices checks a set of service definitions for cross-service
// consistency: unique names and resolvable start_after references. It also
// runs validateService's per-service field checks, which the loaders do not
// run themselves, so every definition is validated in one pass.
func ValidateServices(services []*Service) error {
	var errs []error

	names := make(map[string]bool, len(services))
	for _, svc := range services {
		prefix := fmt.Sprintf("service[%s]", svc.Name)
		if err := validateService(svc, prefix); err != nil {
			errs = append(errs, err)
		}
		if svc.Name != "" {
			if names[svc.Name] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".name",
					Message: fmt.Sprintf("duplicate service name: %s", svc.Name),
				})
			}
			names[svc.Name] = true
		}
	}

	for _, svc := range services {
		for _, dep := range svc.StartAfter {
			if !names[dep] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("service[%s].start_after", svc.Name),
					Message: fmt.Sprintf("references unknown service %q", dep),
				})
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validateService validates the fields of a single service definition.
func validateService(svc *Service, prefix string) error {
	var errs []error

	if svc.Name == "" {
		errs = append(errs, ValidationError{Field: prefix + ".name", Message: "name is required"})
	}
	if svc.Command == "" {
		errs = append(errs, ValidationError{Field: prefix + ".command", Message: "command is required"})
	}

	if err := validateRestartPolicy(svc.Restart, prefix+".restart"); err != nil {
		errs = append(errs, err)
	}

	if svc.Healthcheck != nil {
		if err := validateHealthcheck(svc.Healthcheck, prefix+".healthcheck"); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validateRestartPolicy validates a restart policy value.
func validateRestartPolicy(policy RestartPolicy, field string) error {
	switch policy {
	case RestartNever, RestartOnFailure, RestartAlways, "":
		return nil
	default:
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid restart policy: %s (must be never, on-failure, or always)", policy),
		}
	}
}

// validateHealthcheck validates exactly one probe is configured and that
// its fields are sane.
func validateHealthcheck(hc *Healthcheck, prefix string) error {
	var errs []error

	configured := 0
	if hc.HTTP != nil {
		configured++
		if err := validateHTTPCheck(hc.HTTP, prefix+".http"); err != nil {
			errs = append(errs, err)
		}
	}
	if hc.TCP != nil {
		configured++
		if err := validateTCPCheck(hc.TCP, prefix+".tcp"); err != nil {
			errs = append(errs, err)
		}
	}
	if hc.File != nil {
		configured++
		if strings.TrimSpace(hc.File.Path) == "" {
			errs = append(errs, ValidationError{Field: prefix + ".file.path", Message: "path is required"})
		}
	}
	if hc.Exec != nil {
		configured++
		if strings.TrimSpace(hc.Exec.Command) == "" {
			errs = append(errs, ValidationError{Field: prefix + ".exec.command", Message: "command is required"})
		}
	}

	switch {
	case configured == 0:
		errs = append(errs, ValidationError{Field: prefix, Message: "exactly one of http, tcp, file, exec is required"})
	case configured > 1:
		errs = append(errs, ValidationError{Field: prefix, Message: "only one of http, tcp, file, exec may be set"})
	}

	if hc.Interval <= 0 {
		errs = append(errs, ValidationError{Field: prefix + ".interval", Message: "interval must be positive"})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validateHTTPCheck validates HTTP health check specific fields.
func validateHTTPCheck(hc *HTTPCheck, prefix string) error {
	if hc.Endpoint == "" {
		return ValidationError{Field: prefix + ".endpoint", Message: "endpoint is required"}
	}
	u, err := url.Parse(hc.Endpoint)
	if err != nil {
		return ValidationError{Field: prefix + ".endpoint", Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: prefix + ".endpoint", Message: "endpoint must be http or https"}
	}
	return nil
}

// validateTCPCheck validates TCP health check specific fields.
func validateTCPCheck(hc *TCPCheck, prefix string) error {
	var errs []error
	if hc.Host == "" {
		errs = append(errs, ValidationError{Field: prefix + ".host", Message: "host is required"})
	}
	if hc.Port <= 0 || hc.Port > 65535 {
		errs = append(errs, ValidationError{Field: prefix + ".port", Message: "port must be between 1 and 65535"})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
