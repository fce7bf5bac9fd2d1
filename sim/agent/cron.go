package agent

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/simul-sim/simul/sim"
)

// cronParser accepts standard five-field specs, an optional leading seconds field
// and descriptors such as @hourly or @every 90s.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronProducer sends a message to Target at every activation of a cron schedule.
// Tick t is mapped to wall-clock time Epoch + t*TickDuration; every activation up to and
// including that instant which has not fired yet fires on tick t. Between activations
// the producer sleeps.
type CronProducer struct {
	Target       string
	Spec         string
	Epoch        time.Time
	TickDuration time.Duration

	schedule cron.Schedule
	next     time.Time
}

// NewCronProducer parses spec and creates a producer.
func NewCronProducer(target, spec string, epoch time.Time, tick time.Duration) (*CronProducer, error) {
	if tick <= 0 {
		return nil, fmt.Errorf("cron producer: tick duration must be positive, got %v", tick)
	}
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("cron producer: parse %q: %w", spec, err)
	}
	return &CronProducer{
		Target:       target,
		Spec:         spec,
		Epoch:        epoch,
		TickDuration: tick,
		schedule:     schedule,
	}, nil
}

func (c *CronProducer) Process(ctx *sim.AgentContext) error {
	now := c.wallClock(ctx.Time)
	if c.next.IsZero() {
		c.next = c.schedule.Next(now.Add(-time.Second))
	}
	for !c.next.IsZero() && !c.next.After(now) {
		ctx.Send(c.Target, c.next)
		c.next = c.schedule.Next(c.next)
	}
	if c.next.IsZero() {
		// The schedule has no further activations.
		logrus.Debugf("[tick %07d] %s: schedule %q exhausted", ctx.Time, ctx.Name, c.Spec)
		ctx.Die()
		return nil
	}
	ctx.SleepUntil(c.tickOf(c.next))
	return nil
}

// Targets implements sim.TargetDeclarer.
func (c *CronProducer) Targets() []string { return []string{c.Target} }

func (c *CronProducer) wallClock(t sim.DiscreteTime) time.Time {
	return c.Epoch.Add(time.Duration(t) * c.TickDuration)
}

// tickOf returns the first tick whose wall-clock instant is not before at.
func (c *CronProducer) tickOf(at time.Time) sim.DiscreteTime {
	d := at.Sub(c.Epoch)
	if d <= 0 {
		return 0
	}
	ticks := d / c.TickDuration
	if d%c.TickDuration != 0 {
		ticks++
	}
	return sim.DiscreteTime(ticks)
}
