package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// agentFunc adapts a function to the Agent interface.
type agentFunc func(ctx *AgentContext) error

func (f agentFunc) Process(ctx *AgentContext) error { return f(ctx) }

// everyTickProducer sends one message to target on every tick it is processed.
type everyTickProducer struct {
	target string
}

func (p *everyTickProducer) Process(ctx *AgentContext) error {
	ctx.Send(p.target, nil)
	return nil
}

func (p *everyTickProducer) Targets() []string { return []string{p.target} }

func (p *everyTickProducer) Cost() float64 { return -1 }

// moduloConsumer dequeues one message on ticks divisible by every.
type moduloConsumer struct {
	every DiscreteTime
}

func (c *moduloConsumer) Process(ctx *AgentContext) error {
	if ctx.Time%c.every == 0 {
		ctx.Dequeue()
	}
	return nil
}

// idleAgent does nothing.
type idleAgent struct{}

func (idleAgent) Process(*AgentContext) error { return nil }

var errBoom = errors.New("boom")

func haltAtTime(t DiscreteTime) HaltCheck {
	return func(s *Simulation) bool { return s.Time() >= t }
}

func initializer(name string, a Agent) AgentInitializer {
	return AgentInitializer{Agent: a, Options: AgentOptions{Name: name}}
}

// producerConsumerParams builds a producer that sends every tick and a consumer
// that drains one message every third tick, halting at time 10.
func producerConsumerParams(telemetry bool) Parameters {
	return Parameters{
		AgentInitializers: []AgentInitializer{
			initializer("producer", &everyTickProducer{target: "consumer"}),
			initializer("consumer", &moduloConsumer{every: 3}),
		},
		EnableQueueDepthMetric:        telemetry,
		EnableAgentAsleepCyclesMetric: telemetry,
		HaltCheck:                     haltAtTime(10),
	}
}

func mustSimulation(t testing.TB, p Parameters) *Simulation {
	t.Helper()
	s, err := NewSimulation(p)
	require.NoError(t, err)
	return s
}
