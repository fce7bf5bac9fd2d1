package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/simul-sim/simul/sim/trace"
)

// dispatcher routes the messages produced during a tick into their targets' queues.
// It has exclusive access to the queues only while Dispatch runs.
type dispatcher struct {
	agents []SimulationAgent
	index  map[string]int
	trace  *trace.SimulationTrace // nil when tracing is disabled
}

func newDispatcher(agents []SimulationAgent, index map[string]int, st *trace.SimulationTrace) *dispatcher {
	return &dispatcher{agents: agents, index: index, trace: st}
}

// Dispatch delivers msgs in order. Every target is resolved before anything is
// delivered, so an unknown target leaves all queues untouched.
func (d *dispatcher) Dispatch(tick DiscreteTime, msgs []Message) error {
	for _, m := range msgs {
		if _, ok := d.index[m.Target]; !ok {
			logrus.Warnf("[tick %07d] %s sent a message to unknown agent %q", tick, m.Source, m.Target)
			return &RoutingError{Tick: tick, Source: m.Source, Target: m.Target}
		}
	}
	for _, m := range msgs {
		target := &d.agents[d.index[m.Target]]
		target.State.Queue.Enqueue(m)
		if d.trace != nil {
			d.trace.RecordDelivery(trace.DeliveryRecord{
				Tick:       uint64(tick),
				Source:     m.Source,
				Target:     m.Target,
				QueueDepth: target.State.Queue.Len(),
			})
		}
	}
	return nil
}
