package sim

import (
	"errors"
	"fmt"
)

// Configuration errors are detected by NewSimulation before any tick runs.
var (
	ErrNoAgents         = errors.New("no agents supplied")
	ErrNilAgent         = errors.New("agent is nil")
	ErrEmptyAgentName   = errors.New("agent name is empty")
	ErrDuplicateAgent   = errors.New("duplicate agent name")
	ErrMissingHaltCheck = errors.New("halt check is required")
	ErrInvalidMode      = errors.New("invalid agent mode")
)

// ErrUnknownTarget marks a message (or declared target) naming an agent that does not exist.
var ErrUnknownTarget = errors.New("unknown target")

// ErrHalted is returned by Step once the simulation has reached a halted state.
var ErrHalted = errors.New("simulation halted")

// ConfigError describes why a Simulation could not be built.
// It unwraps to one of the configuration sentinels above or ErrUnknownTarget.
type ConfigError struct {
	Agent string // Offending agent, empty when the error is not agent-specific
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("invalid simulation config: %v", e.Err)
	}
	return fmt.Sprintf("invalid simulation config: agent %q: %v", e.Agent, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RoutingError is returned when a message produced during a tick targets an unknown agent.
// None of the tick's messages are delivered when it occurs.
type RoutingError struct {
	Tick   DiscreteTime
	Source string
	Target string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("tick %d: message from %q: %v %q", e.Tick, e.Source, ErrUnknownTarget, e.Target)
}

func (e *RoutingError) Unwrap() error { return ErrUnknownTarget }

// AgentError wraps a failure returned by an agent's Process call.
type AgentError struct {
	Tick  DiscreteTime
	Agent string
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("tick %d: agent %q: %v", e.Tick, e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }
