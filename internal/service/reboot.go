package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultRebootDelay leaves time for the HTTP response to reach the browser.
const DefaultRebootDelay = 2 * time.Second

// RebootScheduler runs a delayed host reboot outside the caller's context.
//
// A scheduled reboot cannot be cancelled and reports nothing back to the
// caller; failures are only logged. While one is pending, further requests
// are acknowledged without scheduling another.
type RebootScheduler struct {
	log     *zap.Logger
	ctrl    ProcessController
	delay   time.Duration
	pending atomic.Bool
}

// NewRebootScheduler returns a scheduler that reboots through ctrl after delay.
func NewRebootScheduler(log *zap.Logger, ctrl ProcessController, delay time.Duration) *RebootScheduler {
	if delay <= 0 {
		delay = DefaultRebootDelay
	}
	return &RebootScheduler{
		log:   log.Named("reboot"),
		ctrl:  ctrl,
		delay: delay,
	}
}

// Delay returns the time between Schedule and the reboot command.
func (s *RebootScheduler) Delay() time.Duration { return s.delay }

// Schedule arranges a reboot after the delay and returns immediately.
// It reports false when a reboot was already pending.
func (s *RebootScheduler) Schedule() bool {
	if !s.pending.CompareAndSwap(false, true) {
		s.log.Info("reboot already pending")
		return false
	}

	s.log.Warn("reboot scheduled", zap.Duration("in", s.delay))
	time.AfterFunc(s.delay, func() {
		// Detached from any request context.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.ctrl.Reboot(ctx); err != nil {
			s.log.Error("reboot failed", zap.Error(err))
			s.pending.Store(false)
		}
	})
	return true
}
