// sim/stats.go
package sim

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WaitStatistics summarizes how long consumed messages waited in an agent's queue, in ticks.
type WaitStatistics struct {
	Count int
	Mean  float64
	P50   float64
	P90   float64
	P99   float64
	Max   DiscreteTime
}

// SummarizeWaits computes WaitStatistics over durations. The input is not modified.
// An empty input yields the zero value.
func SummarizeWaits(durations []DiscreteTime) WaitStatistics {
	if len(durations) == 0 {
		return WaitStatistics{}
	}
	xs := make([]float64, len(durations))
	for i, d := range durations {
		xs[i] = float64(d)
	}
	slices.Sort(xs)
	return WaitStatistics{
		Count: len(xs),
		Mean:  stat.Mean(xs, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, xs, nil),
		P90:   stat.Quantile(0.90, stat.Empirical, xs, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, xs, nil),
		Max:   DiscreteTime(xs[len(xs)-1]),
	}
}

// WaitStatistics returns the queue-wait summary of the messages the named agent consumed.
func (s *Simulation) WaitStatistics(name string) (WaitStatistics, bool) {
	consumed, ok := s.ConsumedFor(name)
	if !ok {
		return WaitStatistics{}, false
	}
	durations := make([]DiscreteTime, len(consumed))
	for i, m := range consumed {
		durations[i] = m.QueuedDuration()
	}
	return SummarizeWaits(durations), true
}
