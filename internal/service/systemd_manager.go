package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// SystemdManager is a client for the systemd Manager D-Bus interface.
//
// It binds to the well-known bus name "org.freedesktop.systemd1" at the
// object path "/org/freedesktop/systemd1", which exports the
// org.freedesktop.systemd1.Manager interface, and to logind
// ("org.freedesktop.login1") for host power actions.
//
// Unit jobs are asynchronous: Start/Stop/Restart return once systemd has
// queued the job, not when the unit reached its target state.
type SystemdManager struct {
	log   *zap.Logger
	conn  *dbus.Conn
	obj   dbus.BusObject // Proxy object bound to /org/freedesktop/systemd1.
	login dbus.BusObject // Proxy object bound to /org/freedesktop/login1.
}

// ConnectSystemdManager opens a system bus connection and binds a SystemdManager to it.
func ConnectSystemdManager(log *zap.Logger) (*SystemdManager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return NewSystemdManager(log, conn), nil
}

// NewSystemdManager returns a SystemdManager bound to conn (typically the system bus).
func NewSystemdManager(log *zap.Logger, conn *dbus.Conn) *SystemdManager {
	return &SystemdManager{
		log:   log.Named("systemd"),
		conn:  conn,
		obj:   conn.Object("org.freedesktop.systemd1", "/org/freedesktop/systemd1"),
		login: conn.Object("org.freedesktop.login1", "/org/freedesktop/login1"),
	}
}

// Close closes the underlying bus connection.
func (m *SystemdManager) Close() error { return m.conn.Close() }

// IsActive reads the ActiveState property of the unit.
// A unit that is not loaded has no object and reads as inactive.
func (m *SystemdManager) IsActive(ctx context.Context, unit string) bool {
	state, err := m.ActiveState(ctx, unit)
	if err != nil {
		m.log.Debug("active state unavailable", zap.String("unit", unit), zap.Error(err))
		return false
	}
	return state == "active"
}

// ActiveState returns the unit's ActiveState ("active", "inactive", "failed", ...).
//
//	GetUnit(in s name, out o unit)
//	org.freedesktop.systemd1.Unit.ActiveState (s)
func (m *SystemdManager) ActiveState(ctx context.Context, unit string) (string, error) {
	name := unitName(unit)

	var unitPath dbus.ObjectPath
	if err := m.obj.CallWithContext(ctx, "org.freedesktop.systemd1.Manager.GetUnit", 0, name).Store(&unitPath); err != nil {
		return "", fmt.Errorf("GetUnit %q: %w", name, err)
	}

	v, err := m.conn.Object("org.freedesktop.systemd1", unitPath).GetProperty("org.freedesktop.systemd1.Unit.ActiveState")
	if err != nil {
		return "", fmt.Errorf("ActiveState %q: %w", name, err)
	}
	state, ok := v.Value().(string)
	if !ok {
		return "", errors.New("ActiveState: unexpected variant type " + v.Signature().String())
	}
	return state, nil
}

// Start queues a start job for unit.
//
//	StartUnit(in s name, in s mode, out o job)
func (m *SystemdManager) Start(ctx context.Context, unit string) error {
	return m.unitJob(ctx, "StartUnit", unit)
}

// Stop queues a stop job for unit.
//
//	StopUnit(in s name, in s mode, out o job)
func (m *SystemdManager) Stop(ctx context.Context, unit string) error {
	return m.unitJob(ctx, "StopUnit", unit)
}

// Restart queues a restart job for unit (starting it if it is not running).
//
//	RestartUnit(in s name, in s mode, out o job)
func (m *SystemdManager) Restart(ctx context.Context, unit string) error {
	return m.unitJob(ctx, "RestartUnit", unit)
}

// Reboot asks logind to reboot the host, non-interactively.
//
//	org.freedesktop.login1.Manager.Reboot(in b interactive)
func (m *SystemdManager) Reboot(ctx context.Context) error {
	call := m.login.CallWithContext(ctx, "org.freedesktop.login1.Manager.Reboot", 0, false)
	if call.Err != nil {
		return &ProcessError{Command: "login1.Reboot", Err: call.Err}
	}
	return nil
}

func (m *SystemdManager) unitJob(ctx context.Context, method, unit string) error {
	name := unitName(unit)
	command := method + " " + name

	// Job mode "replace": supersede any conflicting queued job.
	call := m.obj.CallWithContext(ctx, "org.freedesktop.systemd1.Manager."+method, 0, name, "replace")
	if call.Err != nil {
		return &ProcessError{Command: command, Err: call.Err}
	}

	// Parse returned object path for the queued job (e.g. /org/freedesktop/systemd1/job/123).
	var jobPath dbus.ObjectPath
	if err := call.Store(&jobPath); err != nil {
		return &ProcessError{Command: command, Err: fmt.Errorf("store job path: %w", err)}
	}

	m.log.Debug("job queued", zap.String("command", command), zap.String("job", string(jobPath)))
	return nil
}
