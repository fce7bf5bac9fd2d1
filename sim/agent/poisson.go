package agent

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/simul-sim/simul/sim"
)

// PoissonProducer sends one message to Target, then sleeps for a cooldown drawn
// from a Poisson distribution with the given mean.
type PoissonProducer struct {
	Target string
	dist   distuv.Poisson
}

// NewPoissonProducer creates a Poisson producer. src should come from
// sim.PartitionedRNG so that seeded runs are reproducible.
func NewPoissonProducer(target string, mean float64, src rand.Source) (*PoissonProducer, error) {
	if mean <= 0 {
		return nil, fmt.Errorf("poisson producer: mean must be positive, got %v", mean)
	}
	return &PoissonProducer{
		Target: target,
		dist:   distuv.Poisson{Lambda: mean, Src: src},
	}, nil
}

func (p *PoissonProducer) Process(ctx *sim.AgentContext) error {
	ctx.Send(p.Target, nil)
	ctx.SleepFor(sim.DiscreteTime(p.dist.Rand()))
	return nil
}

// Targets implements sim.TargetDeclarer.
func (p *PoissonProducer) Targets() []string { return []string{p.Target} }

// Mean returns the mean cooldown in ticks.
func (p *PoissonProducer) Mean() float64 { return p.dist.Lambda }

// Cost is the negated mean cooldown.
func (p *PoissonProducer) Cost() float64 { return -p.dist.Lambda }

// PoissonConsumer consumes at most one message, then sleeps for a Poisson-distributed cooldown.
type PoissonConsumer struct {
	dist distuv.Poisson
}

// NewPoissonConsumer creates a Poisson consumer; see NewPoissonProducer for src.
func NewPoissonConsumer(mean float64, src rand.Source) (*PoissonConsumer, error) {
	if mean <= 0 {
		return nil, fmt.Errorf("poisson consumer: mean must be positive, got %v", mean)
	}
	return &PoissonConsumer{dist: distuv.Poisson{Lambda: mean, Src: src}}, nil
}

func (c *PoissonConsumer) Process(ctx *sim.AgentContext) error {
	ctx.Dequeue()
	ctx.SleepFor(sim.DiscreteTime(c.dist.Rand()))
	return nil
}

// Mean returns the mean cooldown in ticks.
func (c *PoissonConsumer) Mean() float64 { return c.dist.Lambda }

// Cost is the negated mean cooldown.
func (c *PoissonConsumer) Cost() float64 { return -c.dist.Lambda }
