// Package telemetry samples live host metrics for the panel: CPU utilization
// (aggregate and per core), memory usage and the SoC temperature.
//
// Every metric is best-effort. A source that fails degrades its own value to
// zero and the snapshot is still returned.
package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWindow is the delay between the two CPU counter reads.
// Longer windows smooth spikes at the cost of responsiveness.
const DefaultWindow = 300 * time.Millisecond

// Snapshot is one point-in-time measurement. It is never cached.
type Snapshot struct {
	CPUTotalPercent    float64   `json:"cpu_percent"`
	CPUCorePercent     []float64 `json:"cpu_cores"` // index-aligned to core number
	RAMPercent         float64   `json:"ram_percent"`
	TemperatureCelsius float64   `json:"temperature"`
}

// Options configures a Sampler built on the host sources.
type Options struct {
	Window      time.Duration // default DefaultWindow
	ThermalPath string        // default DefaultThermalPath
}

// Sampler takes telemetry snapshots. It holds no mutable state, so concurrent
// Sample calls are independent.
type Sampler struct {
	log      *zap.Logger
	counters CounterSource
	memory   MemorySource
	thermal  ThermalSource
	window   time.Duration
}

// NewSampler returns a Sampler reading the local host.
func NewSampler(log *zap.Logger, opts Options) *Sampler {
	if opts.ThermalPath == "" {
		opts.ThermalPath = DefaultThermalPath
	}
	return NewSamplerWithSources(log, HostCounters{}, HostMemory{}, SysfsThermal{Path: opts.ThermalPath}, opts.Window)
}

// NewSamplerWithSources returns a Sampler over arbitrary sources.
func NewSamplerWithSources(log *zap.Logger, counters CounterSource, memory MemorySource, thermal ThermalSource, window time.Duration) *Sampler {
	if log == nil {
		log = zap.NewNop()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Sampler{
		log:      log.Named("telemetry"),
		counters: counters,
		memory:   memory,
		thermal:  thermal,
		window:   window,
	}
}

// Window returns the CPU sampling window.
func (s *Sampler) Window() time.Duration { return s.window }

// Sample blocks for the sampling window and returns a snapshot.
// It never fails; unavailable metrics read as zero.
func (s *Sampler) Sample(ctx context.Context) Snapshot {
	var snap Snapshot

	// Memory and temperature are read while the CPU window elapses.
	// Each goroutine owns distinct fields of snap.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.CPUTotalPercent, snap.CPUCorePercent = s.sampleCPU(gctx)
		return nil
	})
	g.Go(func() error {
		snap.RAMPercent = s.sampleMemory(gctx)
		return nil
	})
	g.Go(func() error {
		snap.TemperatureCelsius = s.sampleTemperature(gctx)
		return nil
	})
	_ = g.Wait() // all steps absorb their errors

	return snap
}

func (s *Sampler) sampleCPU(ctx context.Context) (float64, []float64) {
	first, err := s.counters.ReadCounters(ctx)
	if err != nil {
		s.unavailable("cpu", err)
		return 0, []float64{}
	}

	t := time.NewTimer(s.window)
	defer t.Stop()
	select {
	case <-ctx.Done():
		s.unavailable("cpu", ctx.Err())
		return cpuUsage(first, nil)
	case <-t.C:
	}

	second, err := s.counters.ReadCounters(ctx)
	if err != nil {
		s.unavailable("cpu", err)
		return cpuUsage(first, nil)
	}
	return cpuUsage(first, second)
}

func (s *Sampler) sampleMemory(ctx context.Context) float64 {
	total, available, err := s.memory.ReadMemory(ctx)
	if err != nil {
		s.unavailable("memory", err)
		return 0
	}
	if total == 0 {
		return 0
	}
	var used uint64
	if available < total {
		used = total - available
	}
	return round1(100 * float64(used) / float64(total))
}

func (s *Sampler) sampleTemperature(ctx context.Context) float64 {
	milli, err := s.thermal.ReadMillidegrees(ctx)
	if err != nil {
		s.unavailable("temperature", err)
		return 0
	}
	return round1(float64(milli) / 1000)
}

func (s *Sampler) unavailable(metric string, err error) {
	s.log.Debug("metric unavailable", zap.String("metric", metric), zap.Error(err))
}
