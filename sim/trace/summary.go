package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDeliveries    int
	TotalInterrupts    int
	UniqueTargets      int
	PeakQueueDepth     int
	PeakQueueTarget    string
	TargetDistribution map[string]int // agent name → messages delivered to it
	SourceDistribution map[string]int // agent name → messages it produced
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
		SourceDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDeliveries = len(st.Deliveries)
	summary.TotalInterrupts = len(st.Interrupts)
	for _, d := range st.Deliveries {
		summary.TargetDistribution[d.Target]++
		summary.SourceDistribution[d.Source]++
		// first target to reach the peak wins ties
		if d.QueueDepth > summary.PeakQueueDepth {
			summary.PeakQueueDepth = d.QueueDepth
			summary.PeakQueueTarget = d.Target
		}
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
