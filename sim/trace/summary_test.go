package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceLevelRouting)

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDeliveries != 0 || summary.TotalInterrupts != 0 {
		t.Error("expected 0 deliveries and interrupts")
	}
	if summary.UniqueTargets != 0 {
		t.Errorf("expected 0 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.PeakQueueDepth != 0 || summary.PeakQueueTarget != "" {
		t.Error("expected no peak queue")
	}
	if len(summary.TargetDistribution) != 0 {
		t.Error("expected empty target distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil {
		t.Fatal("expected non-nil summary for nil trace")
	}
	if summary.TotalDeliveries != 0 {
		t.Errorf("expected 0 deliveries, got %d", summary.TotalDeliveries)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with deliveries from two sources to two targets
	st := NewSimulationTrace(TraceLevelRouting)
	st.RecordDelivery(DeliveryRecord{Tick: 0, Source: "p1", Target: "c1", QueueDepth: 1})
	st.RecordDelivery(DeliveryRecord{Tick: 0, Source: "p2", Target: "c1", QueueDepth: 2})
	st.RecordDelivery(DeliveryRecord{Tick: 1, Source: "p1", Target: "c2", QueueDepth: 1})
	st.RecordDelivery(DeliveryRecord{Tick: 1, Source: "p2", Target: "c2", QueueDepth: 2})
	st.RecordInterrupt(InterruptRecord{Tick: 1, Agent: "c2", Reason: "full"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDeliveries != 4 {
		t.Errorf("expected 4 deliveries, got %d", summary.TotalDeliveries)
	}
	if summary.TotalInterrupts != 1 {
		t.Errorf("expected 1 interrupt, got %d", summary.TotalInterrupts)
	}
	if summary.UniqueTargets != 2 {
		t.Errorf("expected 2 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.TargetDistribution["c1"] != 2 || summary.TargetDistribution["c2"] != 2 {
		t.Errorf("unexpected target distribution %v", summary.TargetDistribution)
	}
	if summary.SourceDistribution["p1"] != 2 {
		t.Errorf("expected p1 to produce 2, got %d", summary.SourceDistribution["p1"])
	}
	// THEN the first target to reach the peak depth is reported
	if summary.PeakQueueDepth != 2 || summary.PeakQueueTarget != "c1" {
		t.Errorf("expected peak 2 at c1, got %d at %s", summary.PeakQueueDepth, summary.PeakQueueTarget)
	}
}
