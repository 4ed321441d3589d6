package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seqCounters returns the queued sets in order, then errors.
type seqCounters struct {
	mu   sync.Mutex
	sets []CounterSet
	err  error
}

func (s *seqCounters) ReadCounters(context.Context) (CounterSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sets) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, errors.New("no more reads")
	}
	set := s.sets[0]
	s.sets = s.sets[1:]
	return set, nil
}

type fakeMemory struct {
	total, available uint64
	err              error
}

func (m fakeMemory) ReadMemory(context.Context) (uint64, uint64, error) {
	return m.total, m.available, m.err
}

type fakeThermal struct {
	milli int64
	err   error
}

func (f fakeThermal) ReadMillidegrees(context.Context) (int64, error) { return f.milli, f.err }

func TestSample_AllSources(t *testing.T) {
	counters := &seqCounters{sets: []CounterSet{
		{"cpu": {Idle: 100, Total: 200}, "cpu0": {Idle: 50, Total: 100}, "cpu1": {Idle: 50, Total: 100}},
		{"cpu": {Idle: 130, Total: 260}, "cpu0": {Idle: 80, Total: 130}, "cpu1": {Idle: 50, Total: 130}},
	}}
	s := NewSamplerWithSources(zap.NewNop(), counters,
		fakeMemory{total: 4000, available: 1000},
		fakeThermal{milli: 48312},
		time.Millisecond)

	snap := s.Sample(context.Background())
	assert.Equal(t, Snapshot{
		CPUTotalPercent:    50,
		CPUCorePercent:     []float64{0, 100},
		RAMPercent:         75,
		TemperatureCelsius: 48.3,
	}, snap)
}

func TestSample_DegradesEachMetricIndependently(t *testing.T) {
	s := NewSamplerWithSources(zap.NewNop(),
		&seqCounters{err: errors.New("no /proc/stat")},
		fakeMemory{total: 1000, available: 250},
		fakeThermal{err: os.ErrNotExist},
		time.Millisecond)

	snap := s.Sample(context.Background())
	assert.Equal(t, 0.0, snap.CPUTotalPercent)
	assert.Empty(t, snap.CPUCorePercent)
	assert.Equal(t, 75.0, snap.RAMPercent)
	assert.Equal(t, 0.0, snap.TemperatureCelsius)
}

func TestSample_SecondReadFailsKeepsCoreAlignment(t *testing.T) {
	counters := &seqCounters{sets: []CounterSet{{"cpu": {}, "cpu0": {}, "cpu1": {}, "cpu2": {}}}}
	s := NewSamplerWithSources(zap.NewNop(), counters, fakeMemory{}, fakeThermal{}, time.Millisecond)

	snap := s.Sample(context.Background())
	assert.Equal(t, []float64{0, 0, 0}, snap.CPUCorePercent)
}

func TestSample_MemoryEdgeCases(t *testing.T) {
	counters := func() *seqCounters { return &seqCounters{} }

	s := NewSamplerWithSources(zap.NewNop(), counters(), fakeMemory{total: 0, available: 0}, fakeThermal{}, time.Millisecond)
	assert.Equal(t, 0.0, s.Sample(context.Background()).RAMPercent)

	s = NewSamplerWithSources(zap.NewNop(), counters(), fakeMemory{err: errors.New("boom")}, fakeThermal{}, time.Millisecond)
	assert.Equal(t, 0.0, s.Sample(context.Background()).RAMPercent)

	s = NewSamplerWithSources(zap.NewNop(), counters(), fakeMemory{total: 3, available: 2}, fakeThermal{}, time.Millisecond)
	assert.Equal(t, 33.3, s.Sample(context.Background()).RAMPercent)
}

func TestSample_BlocksForWindow(t *testing.T) {
	counters := &seqCounters{sets: []CounterSet{{"cpu": {}}, {"cpu": {Total: 1}}}}
	s := NewSamplerWithSources(zap.NewNop(), counters, fakeMemory{}, fakeThermal{}, 50*time.Millisecond)

	start := time.Now()
	s.Sample(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSample_CancelledDuringWindow(t *testing.T) {
	counters := &seqCounters{sets: []CounterSet{{"cpu": {}, "cpu0": {}}, {"cpu": {Total: 10}, "cpu0": {Total: 10}}}}
	s := NewSamplerWithSources(zap.NewNop(), counters, fakeMemory{total: 10, available: 5}, fakeThermal{milli: 1000}, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap := s.Sample(ctx)
	assert.Equal(t, 0.0, snap.CPUTotalPercent)
	assert.Equal(t, []float64{0}, snap.CPUCorePercent)
}

func TestNewSamplerWithSources_DefaultWindow(t *testing.T) {
	s := NewSamplerWithSources(nil, &seqCounters{}, fakeMemory{}, fakeThermal{}, 0)
	assert.Equal(t, DefaultWindow, s.Window())
}

func TestSysfsThermal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("52750\n"), 0o644))

	v, err := SysfsThermal{Path: path}.ReadMillidegrees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(52750), v)

	require.NoError(t, os.WriteFile(path, []byte("n/a"), 0o644))
	_, err = SysfsThermal{Path: path}.ReadMillidegrees(context.Background())
	assert.Error(t, err)

	_, err = SysfsThermal{Path: filepath.Join(t.TempDir(), "missing")}.ReadMillidegrees(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSample_TemperatureRounding(t *testing.T) {
	s := NewSamplerWithSources(zap.NewNop(), &seqCounters{}, fakeMemory{}, fakeThermal{milli: 61849}, time.Millisecond)
	assert.Equal(t, 61.8, s.Sample(context.Background()).TemperatureCelsius)
}
