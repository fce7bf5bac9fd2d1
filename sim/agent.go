package sim

import "fmt"

// Agent is a named, stateful participant in a simulation.
// Process is called at most once per tick, in the simulation's fixed agent order.
// An agent affects other agents only through the messages it sends on its context;
// it must never touch another agent's state or queue.
//
// Implementations are held by pointer and exclusively owned by one Simulation.
// Experiments must construct fresh agents for every run.
type Agent interface {
	Process(ctx *AgentContext) error
}

// Coster is implemented by agents that report a resource cost, used by objective functions.
type Coster interface {
	Cost() float64
}

// TargetDeclarer is implemented by agents whose message targets are known up front.
// Declared targets are validated when the simulation is built.
type TargetDeclarer interface {
	Targets() []string
}

// AgentMode controls whether an agent is processed on a tick.
type AgentMode int

const (
	// ModeProactive agents are processed every tick, with or without queued messages.
	ModeProactive AgentMode = iota
	// ModeReactive agents are processed only on ticks where their queue is non-empty.
	ModeReactive
	// ModeAsleep agents are skipped until the clock reaches their wake time.
	ModeAsleep
	// ModeDead agents are never processed again.
	ModeDead
)

func (m AgentMode) String() string {
	switch m {
	case ModeProactive:
		return "proactive"
	case ModeReactive:
		return "reactive"
	case ModeAsleep:
		return "asleep"
	case ModeDead:
		return "dead"
	default:
		return fmt.Sprintf("AgentMode(%d)", int(m))
	}
}

// AgentOptions configures how the engine holds an agent.
type AgentOptions struct {
	Name         string    // Unique agent name (required)
	InitialMode  AgentMode // ModeProactive (default) or ModeReactive
	WakeMode     AgentMode // Mode restored after sleeping; ModeProactive (default) or ModeReactive
	InitialQueue []Message // Messages already waiting for the agent at the starting time
}

// AgentInitializer pairs an agent implementation with its options.
type AgentInitializer struct {
	Agent   Agent
	Options AgentOptions
}

// AgentState is the engine-owned state of one agent.
type AgentState struct {
	Mode        AgentMode
	WakeMode    AgentMode
	AsleepUntil DiscreteTime // Meaningful only in ModeAsleep
	Queue       MessageQueue
	Produced    []Message // Every message the agent sent, in order
	Consumed    []Message // Every message the agent consumed, with CompletedTime set
}

// SimulationAgent is the uniform handle the engine keeps for each agent.
type SimulationAgent struct {
	Name  string
	Agent Agent
	State AgentState
}

// Cost returns the agent's cost, or 0 if it does not implement Coster.
func (a *SimulationAgent) Cost() float64 {
	if c, ok := a.Agent.(Coster); ok {
		return c.Cost()
	}
	return 0
}

// wake restores the wake mode once the clock reaches the agent's wake time.
func (a *SimulationAgent) wake(now DiscreteTime) {
	if a.State.Mode == ModeAsleep && now >= a.State.AsleepUntil {
		a.State.Mode = a.State.WakeMode
		a.State.AsleepUntil = 0
	}
}

// runnable reports whether the agent is processed this tick.
func (a *SimulationAgent) runnable() bool {
	switch a.State.Mode {
	case ModeProactive:
		return true
	case ModeReactive:
		return a.State.Queue.Len() > 0
	default:
		return false
	}
}

func validStartMode(m AgentMode) bool {
	return m == ModeProactive || m == ModeReactive
}
