package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ServiceMode names one of the long-running loops the kph binary can host.
type ServiceMode string

const (
	// ServiceModeHTTP serves the portal.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReaper purges expired session rows from Postgres.
	ServiceModeReaper ServiceMode = "reaper"
)

var serviceModes = []ServiceMode{ServiceModeHTTP, ServiceModeReaper}

// ErrNoServices is returned when SERVICES selects nothing.
var ErrNoServices = errors.New("config: SERVICES selects no service")

// ValidServiceModes lists the modes SERVICES may name, in start order.
func ValidServiceModes() []ServiceMode {
	return slices.Clone(serviceModes)
}

// Valid reports whether m is a mode the binary knows how to run.
func (m ServiceMode) Valid() bool {
	return slices.Contains(serviceModes, m)
}

func serviceModeNames() string {
	names := make([]string, len(serviceModes))
	for i, m := range serviceModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ParseServices reads a SERVICES value such as "http,reaper". Names are
// case-sensitive; blanks between commas are skipped.
func ParseServices(raw string) (map[ServiceMode]bool, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' })
	enabled := make(map[ServiceMode]bool, len(serviceModes))
	for _, f := range fields {
		m := ServiceMode(strings.TrimSpace(f))
		if m == "" {
			continue
		}
		if !m.Valid() {
			return nil, fmt.Errorf("config: unknown service %q in SERVICES (want one of %s)", m, serviceModeNames())
		}
		enabled[m] = true
	}
	if len(enabled) == 0 {
		return nil, ErrNoServices
	}
	return enabled, nil
}
