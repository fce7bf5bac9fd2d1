// sim/simulator.go
package sim

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/simul-sim/simul/sim/trace"
)

// HaltCheck decides whether a simulation is finished. It is evaluated after every
// tick that advanced the clock, against the simulation's current public state.
type HaltCheck func(*Simulation) bool

// Parameters configures a Simulation. It is consumed once by NewSimulation.
type Parameters struct {
	// AgentInitializers lists the agents in processing order. Required.
	AgentInitializers []AgentInitializer
	// StartingTime is the clock value of the first tick.
	StartingTime DiscreteTime
	// EnableQueueDepthMetric records every agent's queue depth after each tick.
	EnableQueueDepthMetric bool
	// EnableAgentAsleepCyclesMetric counts the ticks each agent spent idle.
	EnableAgentAsleepCyclesMetric bool
	// TraceLevel enables routing trace recording (trace.TraceLevelRouting).
	TraceLevel trace.TraceLevel
	// HaltCheck ends the run when it returns true. Required.
	HaltCheck HaltCheck
}

// Status is the engine's lifecycle state.
type Status int

const (
	StatusRunning Status = iota
	StatusHalted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// HaltReason records why a simulation halted.
type HaltReason int

const (
	HaltNone HaltReason = iota
	HaltPredicateSatisfied
	HaltAgentInterrupt
)

func (r HaltReason) String() string {
	switch r {
	case HaltNone:
		return "none"
	case HaltPredicateSatisfied:
		return "predicate-satisfied"
	case HaltAgentInterrupt:
		return "agent-interrupt"
	default:
		return fmt.Sprintf("HaltReason(%d)", int(r))
	}
}

// Simulation is the core object that holds the clock, the agent set and the tick loop.
// It exclusively owns its agents; it is not safe for concurrent use.
type Simulation struct {
	time      DiscreteTime
	agents    []SimulationAgent
	index     map[string]int // agent name -> position in agents
	haltCheck HaltCheck

	telemetry  *Telemetry
	trace      *trace.SimulationTrace
	dispatcher *dispatcher

	// per-tick scratch, reused across ticks
	ctx     AgentContext
	pending []Message
	idle    []bool

	status    Status
	reason    HaltReason
	interrupt *Interrupt
	err       error
	ticks     uint64
}

// NewSimulation validates p and builds a Simulation at p.StartingTime.
// All configuration errors are returned as *ConfigError before any tick runs.
func NewSimulation(p Parameters) (*Simulation, error) {
	if p.HaltCheck == nil {
		return nil, &ConfigError{Err: ErrMissingHaltCheck}
	}
	if len(p.AgentInitializers) == 0 {
		return nil, &ConfigError{Err: ErrNoAgents}
	}

	agents := make([]SimulationAgent, 0, len(p.AgentInitializers))
	index := make(map[string]int, len(p.AgentInitializers))
	for i, init := range p.AgentInitializers {
		name := init.Options.Name
		if name == "" {
			return nil, &ConfigError{Err: fmt.Errorf("agent #%d: %w", i, ErrEmptyAgentName)}
		}
		if init.Agent == nil {
			return nil, &ConfigError{Agent: name, Err: ErrNilAgent}
		}
		if _, exists := index[name]; exists {
			return nil, &ConfigError{Agent: name, Err: ErrDuplicateAgent}
		}
		if !validStartMode(init.Options.InitialMode) {
			return nil, &ConfigError{Agent: name, Err: fmt.Errorf("%w: initial mode %s", ErrInvalidMode, init.Options.InitialMode)}
		}
		if !validStartMode(init.Options.WakeMode) {
			return nil, &ConfigError{Agent: name, Err: fmt.Errorf("%w: wake mode %s", ErrInvalidMode, init.Options.WakeMode)}
		}

		a := SimulationAgent{
			Name:  name,
			Agent: init.Agent,
			State: AgentState{
				Mode:     init.Options.InitialMode,
				WakeMode: init.Options.WakeMode,
			},
		}
		for _, m := range init.Options.InitialQueue {
			m.Target = name
			if m.QueuedTime == 0 || m.QueuedTime > p.StartingTime {
				m.QueuedTime = p.StartingTime
			}
			a.State.Queue.Enqueue(m)
		}
		index[name] = len(agents)
		agents = append(agents, a)
	}

	// Declared targets are checked once every name is known.
	for _, a := range agents {
		td, ok := a.Agent.(TargetDeclarer)
		if !ok {
			continue
		}
		for _, target := range td.Targets() {
			if _, exists := index[target]; !exists {
				return nil, &ConfigError{Agent: a.Name, Err: fmt.Errorf("%w %q", ErrUnknownTarget, target)}
			}
		}
	}

	s := &Simulation{
		time:      p.StartingTime,
		agents:    agents,
		index:     index,
		haltCheck: p.HaltCheck,
		telemetry: newTelemetry(p.StartingTime, p.EnableQueueDepthMetric, p.EnableAgentAsleepCyclesMetric, agents),
		idle:      make([]bool, len(agents)),
		status:    StatusRunning,
	}
	if p.TraceLevel.Enabled() {
		s.trace = trace.NewSimulationTrace(p.TraceLevel)
	}
	s.dispatcher = newDispatcher(s.agents, s.index, s.trace)

	logrus.Debugf("[tick %07d] Simulation built with %d agents", s.time, len(agents))
	return s, nil
}

// Step executes exactly one tick. It returns ErrHalted once the simulation has
// halted and the original failure once a tick has failed; neither advances the clock.
func (s *Simulation) Step() error {
	switch s.status {
	case StatusHalted:
		return ErrHalted
	case StatusFailed:
		return s.err
	}

	now := s.time
	s.pending = s.pending[:0]
	var interrupt *Interrupt

	// 1. process every agent against its start-of-tick queue
	for i := range s.agents {
		a := &s.agents[i]
		a.wake(now)
		if !a.runnable() {
			s.idle[i] = true
			continue
		}
		s.ctx.reset(a, now)
		if err := a.Agent.Process(&s.ctx); err != nil {
			return s.fail(&AgentError{Tick: now, Agent: a.Name, Err: err})
		}
		s.idle[i] = s.ctx.idle()
		s.pending = append(s.pending, s.ctx.outbox...)
		if s.ctx.interrupt != nil && interrupt == nil {
			interrupt = s.ctx.interrupt
		}
	}

	// 2. route this tick's messages; visible from the next tick on
	if err := s.dispatcher.Dispatch(now, s.pending); err != nil {
		return s.fail(err)
	}

	s.telemetry.record(s.agents, s.idle)
	s.ticks++

	// 3. interrupts win over the halt check and do not advance the clock
	if interrupt != nil {
		s.interrupt = interrupt
		s.halt(HaltAgentInterrupt)
		if s.trace != nil {
			s.trace.RecordInterrupt(trace.InterruptRecord{Tick: uint64(now), Agent: interrupt.Agent, Reason: interrupt.Reason})
		}
		logrus.Debugf("[tick %07d] %s interrupted: %s", now, interrupt.Agent, interrupt.Reason)
		return nil
	}

	// 4. advance the clock, 5. evaluate the halt check
	s.time++
	if s.haltCheck(s) {
		s.halt(HaltPredicateSatisfied)
	}
	return nil
}

// Run steps until the simulation halts or a tick fails. For long simulations this
// blocks for as long as the halt check takes to become true.
func (s *Simulation) Run() error {
	for s.status == StatusRunning {
		if err := s.Step(); err != nil {
			return err
		}
	}
	if s.status == StatusFailed {
		return s.err
	}
	logrus.Infof("[tick %07d] Simulation ended after %d ticks (%s)", s.time, s.ticks, s.reason)
	return nil
}

func (s *Simulation) halt(reason HaltReason) {
	s.status = StatusHalted
	s.reason = reason
}

func (s *Simulation) fail(err error) error {
	s.status = StatusFailed
	s.err = err
	logrus.Warnf("[tick %07d] Simulation failed: %v", s.time, err)
	return err
}

// Time returns the current clock value.
func (s *Simulation) Time() DiscreteTime { return s.time }

// Ticks returns the number of ticks completed.
func (s *Simulation) Ticks() uint64 { return s.ticks }

// Status returns the lifecycle state.
func (s *Simulation) Status() Status { return s.status }

// Halted reports whether the simulation reached a halted state.
func (s *Simulation) Halted() bool { return s.status == StatusHalted }

// HaltReason returns why the simulation halted, or HaltNone.
func (s *Simulation) HaltReason() HaltReason { return s.reason }

// Interrupt returns the interrupt that halted the simulation, or nil.
func (s *Simulation) Interrupt() *Interrupt {
	if s.interrupt == nil {
		return nil
	}
	i := *s.interrupt
	return &i
}

// Err returns the failure that stopped the simulation, or nil.
func (s *Simulation) Err() error { return s.err }

// Agents returns a copy of the agent handles in processing order. The copy is
// shallow: queues and histories still share storage with the engine and must
// only be read.
func (s *Simulation) Agents() []SimulationAgent { return slices.Clone(s.agents) }

// FindByName returns the named agent, or nil.
// The handle points into the engine; it is a read-only view and writing through it
// corrupts the run.
func (s *Simulation) FindByName(name string) *SimulationAgent {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	return &s.agents[i]
}

// FindAgent returns the first agent, in processing order, matching pred, or nil.
// Like FindByName, the result is a read-only view into the engine.
func (s *Simulation) FindAgent(pred func(*SimulationAgent) bool) *SimulationAgent {
	for i := range s.agents {
		if pred(&s.agents[i]) {
			return &s.agents[i]
		}
	}
	return nil
}

// Telemetry returns the accumulated telemetry.
func (s *Simulation) Telemetry() *Telemetry { return s.telemetry }

// Trace returns the routing trace, or nil when tracing is disabled.
func (s *Simulation) Trace() *trace.SimulationTrace { return s.trace }

// QueueDepthSeries returns the named agent's queue depth per tick.
// Returns nil when the metric is disabled or the agent is unknown.
func (s *Simulation) QueueDepthSeries(name string) []QueueDepthSample {
	return s.telemetry.QueueDepthSeries(name)
}

// IdleCycles returns the named agent's idle tick count and whether it is tracked.
func (s *Simulation) IdleCycles(name string) (uint64, bool) {
	return s.telemetry.IdleCyclesFor(name)
}

// ProducedFor returns the messages the named agent produced.
func (s *Simulation) ProducedFor(name string) ([]Message, bool) {
	a := s.FindByName(name)
	if a == nil {
		return nil, false
	}
	return a.State.Produced, true
}

// ConsumedFor returns the messages the named agent consumed.
func (s *Simulation) ConsumedFor(name string) ([]Message, bool) {
	a := s.FindByName(name)
	if a == nil {
		return nil, false
	}
	return a.State.Consumed, true
}

// QueuedDurations returns, in consumption order, how long each message consumed
// by the named agent waited in its queue.
func (s *Simulation) QueuedDurations(name string) []QueuedDurationSample {
	consumed, ok := s.ConsumedFor(name)
	if !ok {
		return nil
	}
	out := make([]QueuedDurationSample, len(consumed))
	for i, m := range consumed {
		out[i] = QueuedDurationSample{Tick: m.CompletedTime, Duration: m.QueuedDuration()}
	}
	return out
}
