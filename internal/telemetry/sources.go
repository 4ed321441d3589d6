package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// DefaultThermalPath is the first thermal zone on Linux; on a Raspberry Pi it is the SoC sensor.
const DefaultThermalPath = "/sys/class/thermal/thermal_zone0/temp"

// CounterSource reads cumulative CPU counters for the aggregate and every core.
type CounterSource interface {
	ReadCounters(ctx context.Context) (CounterSet, error)
}

// MemorySource reads total and available memory in bytes.
type MemorySource interface {
	ReadMemory(ctx context.Context) (total, available uint64, err error)
}

// ThermalSource reads a temperature in millidegrees Celsius.
type ThermalSource interface {
	ReadMillidegrees(ctx context.Context) (int64, error)
}

// --- gopsutil ----------------------------------------------------------------

// HostCounters reads CPU times through gopsutil (/proc/stat on Linux).
type HostCounters struct{}

func (HostCounters) ReadCounters(ctx context.Context) (CounterSet, error) {
	agg, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("cpu times: %w", err)
	}
	perCPU, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("per-cpu times: %w", err)
	}

	set := make(CounterSet, len(perCPU)+1)
	if len(agg) > 0 {
		set[aggregateCPU] = fromTimesStat(agg[0])
	}
	for _, t := range perCPU {
		// gopsutil names cores "cpu0", "cpu1", ... like /proc/stat does.
		if strings.HasPrefix(t.CPU, aggregateCPU) {
			set[t.CPU] = fromTimesStat(t)
		}
	}
	return set, nil
}

func fromTimesStat(t cpu.TimesStat) CPUCounter {
	total := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal + t.Guest + t.GuestNice
	return CPUCounter{Idle: t.Idle, Total: total}
}

// HostMemory reads memory usage through gopsutil (/proc/meminfo on Linux).
type HostMemory struct{}

func (HostMemory) ReadMemory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("virtual memory: %w", err)
	}
	return vm.Total, vm.Available, nil
}

// --- sysfs -------------------------------------------------------------------

// SysfsThermal reads a thermal zone "temp" file holding an integer in millidegrees.
type SysfsThermal struct {
	Path string
}

func (s SysfsThermal) ReadMillidegrees(_ context.Context) (int64, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s.Path, err)
	}
	return v, nil
}
