package service

import (
	"context"

	"go.uber.org/zap"
)

// StreamService controls the camera streaming unit.
type StreamService struct {
	log  *zap.Logger
	ctrl ProcessController
	unit string
}

// NewStreamService binds ctrl to the streaming unit.
func NewStreamService(log *zap.Logger, ctrl ProcessController, unit string) *StreamService {
	return &StreamService{
		log:  log.Named("stream").With(zap.String("unit", unit)),
		ctrl: ctrl,
		unit: unit,
	}
}

// Unit returns the controlled unit name.
func (s *StreamService) Unit() string { return s.unit }

// Running reports whether the streaming unit is active.
func (s *StreamService) Running(ctx context.Context) bool {
	return s.ctrl.IsActive(ctx, s.unit)
}

// Start starts the streaming unit.
func (s *StreamService) Start(ctx context.Context) error {
	return s.do(ctx, "start", s.ctrl.Start)
}

// Stop stops the streaming unit.
func (s *StreamService) Stop(ctx context.Context) error {
	return s.do(ctx, "stop", s.ctrl.Stop)
}

// Restart restarts the streaming unit, e.g. to apply a saved config.
func (s *StreamService) Restart(ctx context.Context) error {
	return s.do(ctx, "restart", s.ctrl.Restart)
}

func (s *StreamService) do(ctx context.Context, action string, fn func(context.Context, string) error) error {
	if err := fn(ctx, s.unit); err != nil {
		s.log.Warn(action+" failed", zap.Error(err))
		return err
	}
	s.log.Info(action)
	return nil
}
