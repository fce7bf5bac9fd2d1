package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/simul-sim/simul/sim"
	"github.com/simul-sim/simul/sim/agent"
	"github.com/simul-sim/simul/sim/trace"
)

// ErrNoHaltCondition is returned for a scenario whose halt section is missing or empty.
var ErrNoHaltCondition = errors.New("halt: no condition configured")

// Agent kinds accepted in scenario files.
const (
	KindPeriodicProducer = "periodic-producer"
	KindPeriodicConsumer = "periodic-consumer"
	KindPoissonProducer  = "poisson-producer"
	KindPoissonConsumer  = "poisson-consumer"
	KindCronProducer     = "cron-producer"
	KindForwarder        = "forwarder"
	KindSink             = "sink"
)

// Scenario is the top-level structure of a scenario YAML file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Name         string          `yaml:"name"`
	StartingTime uint64          `yaml:"starting_time"`
	Seed         uint64          `yaml:"seed"`
	Telemetry    TelemetrySpec   `yaml:"telemetry"`
	Trace        string          `yaml:"trace"`
	Clock        ClockSpec       `yaml:"clock"`
	Halt         HaltSpec        `yaml:"halt"`
	Agents       []AgentSpec     `yaml:"agents"`
	Experiment   *ExperimentSpec `yaml:"experiment"`
}

// TelemetrySpec toggles the recorded series.
type TelemetrySpec struct {
	QueueDepth bool `yaml:"queue_depth"`
	IdleCycles bool `yaml:"idle_cycles"`
}

// ClockSpec maps ticks onto wall-clock time for cron-scheduled agents.
type ClockSpec struct {
	Epoch string `yaml:"epoch"` // RFC 3339; defaults to the Unix epoch
	Tick  string `yaml:"tick"`  // Go duration; defaults to 1s
}

// resolve parses the clock mapping.
func (c ClockSpec) resolve() (time.Time, time.Duration, error) {
	epoch := time.Unix(0, 0).UTC()
	tick := time.Second
	if c.Epoch != "" {
		t, err := time.Parse(time.RFC3339, c.Epoch)
		if err != nil {
			return epoch, tick, fmt.Errorf("clock epoch: %w", err)
		}
		epoch = t
	}
	if c.Tick != "" {
		d, err := time.ParseDuration(c.Tick)
		if err != nil {
			return epoch, tick, fmt.Errorf("clock tick: %w", err)
		}
		tick = d
	}
	return epoch, tick, nil
}

// HaltSpec lists halt conditions; the simulation halts when any configured condition holds.
type HaltSpec struct {
	Time        *uint64       `yaml:"time"`         // clock reaches this value
	QueuesEmpty []string      `yaml:"queues_empty"` // all listed queues are empty
	Consumed    *ConsumedSpec `yaml:"consumed"`     // an agent consumed more than Count messages
	MaxTime     uint64        `yaml:"max_time"`     // safety bound on the clock
}

// ConsumedSpec halts once Agent has consumed more than Count messages.
type ConsumedSpec struct {
	Agent string `yaml:"agent"`
	Count int    `yaml:"count"`
}

// AgentSpec describes one agent. Which fields apply depends on Kind.
type AgentSpec struct {
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"`
	Target       string  `yaml:"target"`
	Period       uint64  `yaml:"period"`
	Mean         float64 `yaml:"mean"`
	Schedule     string  `yaml:"schedule"`
	Mode         string  `yaml:"mode"`
	WakeMode     string  `yaml:"wake_mode"`
	InitialQueue int     `yaml:"initial_queue"` // number of messages waiting at the starting time
}

// LoadScenario reads, schema-validates and strictly decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario validates data against the scenario schema and decodes it.
// Unknown fields are rejected, and the halt section must configure at least one condition.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := ValidateScenario(filename, data); err != nil {
		return nil, err
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", filename, err)
	}
	if _, err := sc.Halt.check(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", filename, err)
	}
	return &sc, nil
}

// Parameters builds fresh simulation parameters from the scenario.
// Every call constructs new agents, so the result may be run independently.
func (sc *Scenario) Parameters(seed uint64) (sim.Parameters, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	inits := make([]sim.AgentInitializer, 0, len(sc.Agents))
	for _, spec := range sc.Agents {
		ai, err := spec.initializer(sc, rng)
		if err != nil {
			return sim.Parameters{}, fmt.Errorf("agent %q: %w", spec.Name, err)
		}
		inits = append(inits, ai)
	}
	halt, err := sc.Halt.check()
	if err != nil {
		return sim.Parameters{}, err
	}
	level := trace.TraceLevel(sc.Trace)
	if !trace.IsValidTraceLevel(sc.Trace) {
		return sim.Parameters{}, fmt.Errorf("unknown trace level %q", sc.Trace)
	}
	return sim.Parameters{
		AgentInitializers:             inits,
		StartingTime:                  sim.DiscreteTime(sc.StartingTime),
		EnableQueueDepthMetric:        sc.Telemetry.QueueDepth,
		EnableAgentAsleepCyclesMetric: sc.Telemetry.IdleCycles,
		TraceLevel:                    level,
		HaltCheck:                     halt,
	}, nil
}

// FindAgent returns the spec of the named agent.
func (sc *Scenario) FindAgent(name string) (*AgentSpec, bool) {
	for i := range sc.Agents {
		if sc.Agents[i].Name == name {
			return &sc.Agents[i], true
		}
	}
	return nil, false
}

func (spec AgentSpec) initializer(sc *Scenario, rng *sim.PartitionedRNG) (sim.AgentInitializer, error) {
	a, err := spec.build(sc, rng)
	if err != nil {
		return sim.AgentInitializer{}, err
	}
	mode, err := parseMode(spec.Mode)
	if err != nil {
		return sim.AgentInitializer{}, err
	}
	wake, err := parseMode(spec.WakeMode)
	if err != nil {
		return sim.AgentInitializer{}, err
	}
	var queue []sim.Message
	for i := 0; i < spec.InitialQueue; i++ {
		queue = append(queue, sim.Message{Source: "initial"})
	}
	return sim.AgentInitializer{
		Agent: a,
		Options: sim.AgentOptions{
			Name:         spec.Name,
			InitialMode:  mode,
			WakeMode:     wake,
			InitialQueue: queue,
		},
	}, nil
}

func (spec AgentSpec) build(sc *Scenario, rng *sim.PartitionedRNG) (sim.Agent, error) {
	src := rng.ForSubsystem(sim.SubsystemAgent(spec.Name))
	switch spec.Kind {
	case KindPeriodicProducer:
		return agent.NewPeriodicProducer(spec.Target, sim.DiscreteTime(spec.Period)), nil
	case KindPeriodicConsumer:
		return agent.NewPeriodicConsumer(sim.DiscreteTime(spec.Period)), nil
	case KindPoissonProducer:
		return agent.NewPoissonProducer(spec.Target, spec.Mean, src)
	case KindPoissonConsumer:
		return agent.NewPoissonConsumer(spec.Mean, src)
	case KindCronProducer:
		epoch, tick, err := sc.Clock.resolve()
		if err != nil {
			return nil, err
		}
		return agent.NewCronProducer(spec.Target, spec.Schedule, epoch, tick)
	case KindForwarder:
		return &agent.Forwarder{Target: spec.Target}, nil
	case KindSink:
		return agent.Sink{}, nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", spec.Kind)
	}
}

func parseMode(s string) (sim.AgentMode, error) {
	switch s {
	case "", "proactive":
		return sim.ModeProactive, nil
	case "reactive":
		return sim.ModeReactive, nil
	default:
		return 0, fmt.Errorf("unknown agent mode %q", s)
	}
}

func (h HaltSpec) check() (sim.HaltCheck, error) {
	var checks []sim.HaltCheck
	if h.Time != nil {
		at := sim.DiscreteTime(*h.Time)
		checks = append(checks, func(s *sim.Simulation) bool { return s.Time() >= at })
	}
	if h.MaxTime > 0 {
		at := sim.DiscreteTime(h.MaxTime)
		checks = append(checks, func(s *sim.Simulation) bool { return s.Time() >= at })
	}
	if len(h.QueuesEmpty) > 0 {
		names := h.QueuesEmpty
		checks = append(checks, func(s *sim.Simulation) bool {
			for _, name := range names {
				a := s.FindByName(name)
				if a == nil || a.State.Queue.Len() > 0 {
					return false
				}
			}
			return true
		})
	}
	if h.Consumed != nil {
		name, count := h.Consumed.Agent, h.Consumed.Count
		checks = append(checks, func(s *sim.Simulation) bool {
			consumed, ok := s.ConsumedFor(name)
			return ok && len(consumed) > count
		})
	}
	if len(checks) == 0 {
		return nil, ErrNoHaltCondition
	}
	return func(s *sim.Simulation) bool {
		for _, c := range checks {
			if c(s) {
				return true
			}
		}
		return false
	}, nil
}
