package telemetry

import (
	"math"
	"strconv"
)

// aggregateCPU is the key of the all-cores counter in a CounterSet.
const aggregateCPU = "cpu"

// CPUCounter holds the cumulative counters of one CPU entity that utilization needs.
// Units are irrelevant (ticks or seconds) as long as both fields share them.
type CPUCounter struct {
	Idle  float64 // idle bucket
	Total float64 // sum of all buckets
}

// CounterSet maps "cpu" (aggregate) and "cpu0", "cpu1", ... to their counters.
type CounterSet map[string]CPUCounter

func coreKey(i int) string { return aggregateCPU + strconv.Itoa(i) }

// Utilization returns the busy percentage between two reads of the same counter,
// rounded to one decimal. A non-positive total delta yields 0.
func Utilization(first, second CPUCounter) float64 {
	idleDelta := second.Idle - first.Idle
	totalDelta := second.Total - first.Total
	if totalDelta <= 0 {
		return 0
	}
	return round1(100 * (1 - idleDelta/totalDelta))
}

// cpuUsage computes aggregate and per-core utilization between two counter sets.
//
// Cores are enumerated from first as cpu0, cpu1, ... up to the first missing index.
// A core absent from second (hot-unplug between reads) reports 0, keeping the
// result index-aligned to core numbers. second may be nil.
func cpuUsage(first, second CounterSet) (total float64, cores []float64) {
	if f, ok := first[aggregateCPU]; ok {
		if s, ok := second[aggregateCPU]; ok {
			total = Utilization(f, s)
		}
	}

	cores = []float64{}
	for i := 0; ; i++ {
		key := coreKey(i)
		f, ok := first[key]
		if !ok {
			break
		}
		s, ok := second[key]
		if !ok {
			cores = append(cores, 0)
			continue
		}
		cores = append(cores, Utilization(f, s))
	}
	return total, cores
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
