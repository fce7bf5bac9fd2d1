// Package trace provides routing-trace recording for post-run analysis of message flow.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// DeliveryRecord captures one message routed by the dispatcher.
type DeliveryRecord struct {
	Tick       uint64 // Tick in which the message was produced and routed
	Source     string
	Target     string
	QueueDepth int // Target queue depth after the delivery
}

// InterruptRecord captures an agent-issued halt interrupt.
type InterruptRecord struct {
	Tick   uint64
	Agent  string
	Reason string
}
