// Package agent provides ready-made agent behaviors built on the sim.Agent contract:
// fixed-period, Poisson-distributed and cron-scheduled producers and consumers.
//
// Every constructor returns a fresh agent; agents keep private state and must not be
// shared between simulations.
package agent

import "github.com/simul-sim/simul/sim"

// PeriodicProducer sends one message to Target, then sleeps for Period ticks.
type PeriodicProducer struct {
	Target string
	Period sim.DiscreteTime
}

// NewPeriodicProducer creates a producer sending to target every period ticks.
// A period of 0 is treated as 1.
func NewPeriodicProducer(target string, period sim.DiscreteTime) *PeriodicProducer {
	return &PeriodicProducer{Target: target, Period: max(period, 1)}
}

func (p *PeriodicProducer) Process(ctx *sim.AgentContext) error {
	ctx.Send(p.Target, nil)
	ctx.SleepFor(p.Period)
	return nil
}

// Targets implements sim.TargetDeclarer.
func (p *PeriodicProducer) Targets() []string { return []string{p.Target} }

// Cost is the negated period: faster producers cost more.
func (p *PeriodicProducer) Cost() float64 { return -float64(p.Period) }

// PeriodicConsumer consumes at most one message, then sleeps for Period ticks.
// Period is the time it takes to consume one message.
type PeriodicConsumer struct {
	Period sim.DiscreteTime
}

// NewPeriodicConsumer creates a consumer that drains one message every period ticks.
// A period of 0 is treated as 1.
func NewPeriodicConsumer(period sim.DiscreteTime) *PeriodicConsumer {
	return &PeriodicConsumer{Period: max(period, 1)}
}

func (c *PeriodicConsumer) Process(ctx *sim.AgentContext) error {
	ctx.Dequeue()
	ctx.SleepFor(c.Period)
	return nil
}

// Cost is the negated period: faster consumers cost more.
func (c *PeriodicConsumer) Cost() float64 { return -float64(c.Period) }

// Forwarder consumes one message per tick and re-sends its payload to Target.
// It is typically run in sim.ModeReactive.
type Forwarder struct {
	Target string
}

func (f *Forwarder) Process(ctx *sim.AgentContext) error {
	m, ok := ctx.Dequeue()
	if !ok {
		return nil
	}
	ctx.Send(f.Target, m.Payload)
	return nil
}

// Targets implements sim.TargetDeclarer.
func (f *Forwarder) Targets() []string { return []string{f.Target} }

// Sink consumes every waiting message each tick it is processed.
type Sink struct{}

func (Sink) Process(ctx *sim.AgentContext) error {
	for {
		if _, ok := ctx.Dequeue(); !ok {
			return nil
		}
	}
}
