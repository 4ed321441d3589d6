package service

import (
	"context"
	"fmt"
	"strings"
)

// ProcessController starts, stops and queries systemd units and reboots the host.
type ProcessController interface {
	// IsActive reports whether unit is active. Any failure reads as inactive.
	IsActive(ctx context.Context, unit string) bool
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Restart(ctx context.Context, unit string) error
	// Reboot asks the host to reboot. On success it may never return.
	Reboot(ctx context.Context) error
}

// ProcessError reports a failed service-control command.
type ProcessError struct {
	Command string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, " (stderr: %s)", s)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// unitName appends ".service" when unit carries no unit-type suffix.
func unitName(unit string) string {
	for _, suffix := range []string{".service", ".socket", ".target", ".timer", ".mount", ".path"} {
		if strings.HasSuffix(unit, suffix) {
			return unit
		}
	}
	return unit + ".service"
}
