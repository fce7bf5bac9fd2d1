package trace

import (
	"testing"
)

func TestSimulationTrace_RecordDelivery_AppendsRecord(t *testing.T) {
	// GIVEN a routing trace
	st := NewSimulationTrace(TraceLevelRouting)

	// WHEN a delivery record is recorded
	st.RecordDelivery(DeliveryRecord{Tick: 3, Source: "producer", Target: "consumer", QueueDepth: 2})

	// THEN the trace contains one delivery record with correct data
	if len(st.Deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(st.Deliveries))
	}
	if st.Deliveries[0].Target != "consumer" {
		t.Errorf("expected target consumer, got %s", st.Deliveries[0].Target)
	}
	if st.Deliveries[0].QueueDepth != 2 {
		t.Errorf("expected queue depth 2, got %d", st.Deliveries[0].QueueDepth)
	}
}

func TestSimulationTrace_RecordInterrupt_AppendsRecord(t *testing.T) {
	// GIVEN a routing trace
	st := NewSimulationTrace(TraceLevelRouting)

	// WHEN an interrupt is recorded
	st.RecordInterrupt(InterruptRecord{Tick: 7, Agent: "alice", Reason: "won"})

	// THEN the trace contains it
	if len(st.Interrupts) != 1 {
		t.Fatalf("expected 1 interrupt, got %d", len(st.Interrupts))
	}
	if st.Interrupts[0].Reason != "won" {
		t.Errorf("expected reason won, got %s", st.Interrupts[0].Reason)
	}
}

func TestSimulationTrace_DeliveriesAt_PreservesOrder(t *testing.T) {
	// GIVEN deliveries across two ticks
	st := NewSimulationTrace(TraceLevelRouting)
	st.RecordDelivery(DeliveryRecord{Tick: 0, Source: "a", Target: "c"})
	st.RecordDelivery(DeliveryRecord{Tick: 1, Source: "a", Target: "c"})
	st.RecordDelivery(DeliveryRecord{Tick: 1, Source: "b", Target: "c"})

	// WHEN deliveries for tick 1 are requested
	got := st.DeliveriesAt(1)

	// THEN they are returned in routing order
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries at tick 1, got %d", len(got))
	}
	if got[0].Source != "a" || got[1].Source != "b" {
		t.Errorf("expected sources [a b], got [%s %s]", got[0].Source, got[1].Source)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"routing", true},
		{"", true},
		{"decisions", false},
		{"verbose", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}

func TestTraceLevel_Enabled(t *testing.T) {
	if TraceLevelNone.Enabled() {
		t.Error("none should not be enabled")
	}
	if TraceLevel("").Enabled() {
		t.Error("empty level should not be enabled")
	}
	if !TraceLevelRouting.Enabled() {
		t.Error("routing should be enabled")
	}
}
