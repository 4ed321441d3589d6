package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandRunner runs name with args and returns its captured output.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), err
}

// SystemctlController controls units by shelling out to systemctl.
type SystemctlController struct {
	log     *zap.Logger
	run     CommandRunner
	timeout time.Duration
}

// NewSystemctlController returns a controller using run (ExecRunner when nil).
func NewSystemctlController(log *zap.Logger, run CommandRunner) *SystemctlController {
	if run == nil {
		run = ExecRunner
	}
	return &SystemctlController{
		log:     log.Named("systemctl"),
		run:     run,
		timeout: 10 * time.Second,
	}
}

// IsActive runs `systemctl is-active <unit>`. The command exits non-zero for
// inactive units, so only its stdout is inspected.
func (s *SystemctlController) IsActive(ctx context.Context, unit string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stdout, _, err := s.run(ctx, "systemctl", "is-active", unit)
	state := strings.TrimSpace(stdout)
	if err != nil && state == "" {
		s.log.Debug("is-active failed", zap.String("unit", unit), zap.Error(err))
	}
	return state == "active"
}

// Start runs `systemctl start <unit>`.
func (s *SystemctlController) Start(ctx context.Context, unit string) error {
	return s.exec(ctx, "start", unit)
}

// Stop runs `systemctl stop <unit>`.
func (s *SystemctlController) Stop(ctx context.Context, unit string) error {
	return s.exec(ctx, "stop", unit)
}

// Restart runs `systemctl restart <unit>`.
func (s *SystemctlController) Restart(ctx context.Context, unit string) error {
	return s.exec(ctx, "restart", unit)
}

// Reboot runs `systemctl reboot`.
func (s *SystemctlController) Reboot(ctx context.Context) error {
	return s.exec(ctx, "reboot")
}

// exec executes a systemctl command with a timeout.
func (s *SystemctlController) exec(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmdStr := fmt.Sprintf("systemctl %s", strings.Join(args, " "))

	stdout, stderr, err := s.run(ctx, "systemctl", args...)
	if err != nil {
		return &ProcessError{Command: cmdStr, Stdout: stdout, Stderr: stderr, Err: err}
	}
	s.log.Debug("ok", zap.String("command", cmdStr))
	return nil
}
