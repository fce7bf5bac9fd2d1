// Tracks per-tick, per-agent metrics for post-run analysis such as:
// queue depth after routing and the number of ticks an agent spent idle.

package sim

// Telemetry accumulates per-agent series over a run. Disabled metrics keep nil maps
// and cost nothing.
type Telemetry struct {
	start DiscreteTime

	// QueueDepths holds one sample per completed tick; index i is tick start+i.
	QueueDepths map[string][]int
	// IdleCycles counts ticks in which an agent was skipped (asleep, dead, reactive
	// with an empty queue) or was processed without consuming or producing anything.
	IdleCycles map[string]uint64
}

// QueueDepthSample is one point of a queue-depth series.
type QueueDepthSample struct {
	Tick  DiscreteTime
	Depth int
}

// QueuedDurationSample is the wait of one consumed message, keyed by the tick it was consumed.
type QueuedDurationSample struct {
	Tick     DiscreteTime
	Duration DiscreteTime
}

func newTelemetry(start DiscreteTime, queueDepth, idleCycles bool, agents []SimulationAgent) *Telemetry {
	t := &Telemetry{start: start}
	if queueDepth {
		t.QueueDepths = make(map[string][]int, len(agents))
	}
	if idleCycles {
		t.IdleCycles = make(map[string]uint64, len(agents))
		for _, a := range agents {
			t.IdleCycles[a.Name] = 0
		}
	}
	return t
}

// record samples the state after routing. idle[i] refers to agents[i].
func (t *Telemetry) record(agents []SimulationAgent, idle []bool) {
	if t.QueueDepths != nil {
		for i := range agents {
			name := agents[i].Name
			t.QueueDepths[name] = append(t.QueueDepths[name], agents[i].State.Queue.Len())
		}
	}
	if t.IdleCycles != nil {
		for i := range agents {
			if idle[i] {
				t.IdleCycles[agents[i].Name]++
			}
		}
	}
}

// QueueDepthSeries returns the queue-depth series for an agent in tick order.
// Returns nil if the metric is disabled or the agent is unknown.
func (t *Telemetry) QueueDepthSeries(name string) []QueueDepthSample {
	depths, ok := t.QueueDepths[name]
	if !ok {
		return nil
	}
	series := make([]QueueDepthSample, len(depths))
	for i, d := range depths {
		series[i] = QueueDepthSample{Tick: t.start + DiscreteTime(i), Depth: d}
	}
	return series
}

// IdleCyclesFor returns the idle tick count for an agent and whether it is tracked.
func (t *Telemetry) IdleCyclesFor(name string) (uint64, bool) {
	n, ok := t.IdleCycles[name]
	return n, ok
}
