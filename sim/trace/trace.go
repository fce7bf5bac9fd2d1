package trace

// TraceLevel controls the verbosity of routing tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRouting captures every delivery and interrupt.
	TraceLevelRouting TraceLevel = "routing"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelRouting: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether level records anything.
func (l TraceLevel) Enabled() bool {
	return l == TraceLevelRouting
}

// SimulationTrace collects routing records during a simulation.
type SimulationTrace struct {
	Level      TraceLevel
	Deliveries []DeliveryRecord
	Interrupts []InterruptRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:      level,
		Deliveries: make([]DeliveryRecord, 0),
		Interrupts: make([]InterruptRecord, 0),
	}
}

// RecordDelivery appends a delivery record.
func (st *SimulationTrace) RecordDelivery(record DeliveryRecord) {
	st.Deliveries = append(st.Deliveries, record)
}

// RecordInterrupt appends an interrupt record.
func (st *SimulationTrace) RecordInterrupt(record InterruptRecord) {
	st.Interrupts = append(st.Interrupts, record)
}

// DeliveriesAt returns the deliveries routed in the given tick, in routing order.
func (st *SimulationTrace) DeliveriesAt(tick uint64) []DeliveryRecord {
	var out []DeliveryRecord
	for _, d := range st.Deliveries {
		if d.Tick == tick {
			out = append(out, d)
		}
	}
	return out
}
